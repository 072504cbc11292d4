package local

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/custodia-labs/notesrag/internal/core/domain"
)

// File names inside the data directory.
const (
	VectorsFile  = "vectors.bin"
	PassagesFile = "passages.txt"
	RecordsFile  = "records.jsonl"
)

var vectorsMagic = [4]byte{'N', 'R', 'V', '1'}

// recordLine is one line of records.jsonl.
type recordLine struct {
	ID       string `json:"id"`
	Source   string `json:"source"`
	Category string `json:"category"`
}

// writeFiles atomically replaces all three files. Each is written to a
// temporary file first; renames happen only after every write succeeded.
func writeFiles(dir string, dims int, ids []string, vectors [][]float32, metadata []domain.RecordMetadata) error {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}

	var vecBuf bytes.Buffer
	vecBuf.Write(vectorsMagic[:])
	_ = binary.Write(&vecBuf, binary.LittleEndian, uint32(dims))
	_ = binary.Write(&vecBuf, binary.LittleEndian, uint32(len(ids)))
	row := make([]byte, 4*dims)
	for _, vec := range vectors {
		for k, v := range vec {
			binary.LittleEndian.PutUint32(row[k*4:], math.Float32bits(v))
		}
		vecBuf.Write(row)
	}

	var passBuf, recBuf bytes.Buffer
	enc := json.NewEncoder(&recBuf)
	for row, id := range ids {
		passBuf.WriteString(oneLine(metadata[row].Text))
		passBuf.WriteByte('\n')
		if err := enc.Encode(recordLine{ID: id, Source: metadata[row].Source, Category: metadata[row].Category}); err != nil {
			return fmt.Errorf("encode record %s: %w", id, err)
		}
	}

	files := []struct {
		name string
		data []byte
	}{
		{VectorsFile, vecBuf.Bytes()},
		{PassagesFile, passBuf.Bytes()},
		{RecordsFile, recBuf.Bytes()},
	}

	tmps := make([]string, 0, len(files))
	defer func() {
		for _, tmp := range tmps {
			_ = os.Remove(tmp)
		}
	}()

	for _, f := range files {
		tmp := filepath.Join(dir, f.name+".tmp")
		if err := os.WriteFile(tmp, f.data, 0o600); err != nil {
			return fmt.Errorf("write %s: %w", f.name, err)
		}
		tmps = append(tmps, tmp)
	}
	for _, f := range files {
		if err := os.Rename(filepath.Join(dir, f.name+".tmp"), filepath.Join(dir, f.name)); err != nil {
			return fmt.Errorf("replace %s: %w", f.name, err)
		}
	}
	tmps = nil

	return nil
}

// load reads existing files into the index. Missing files mean an empty
// index; a partial set or mismatched row counts is domain.ErrCorruptStore.
func (i *Index) load() error {
	present := 0
	for _, name := range []string{VectorsFile, PassagesFile, RecordsFile} {
		if _, err := os.Stat(filepath.Join(i.dir, name)); err == nil {
			present++
		} else if !errors.Is(err, os.ErrNotExist) {
			return err
		}
	}
	if present == 0 {
		return nil
	}
	if present != 3 {
		return fmt.Errorf("%w: %d of 3 files present in %s", domain.ErrCorruptStore, present, i.dir)
	}

	dims, vectors, err := readVectors(filepath.Join(i.dir, VectorsFile))
	if err != nil {
		return err
	}
	if i.dims != 0 && dims != i.dims {
		return fmt.Errorf("%w: stored index has %d dimensions, configured %d", domain.ErrDimensionMismatch, dims, i.dims)
	}

	passages, err := readLines(filepath.Join(i.dir, PassagesFile))
	if err != nil {
		return err
	}
	lines, err := readLines(filepath.Join(i.dir, RecordsFile))
	if err != nil {
		return err
	}

	if len(passages) != len(vectors) || len(lines) != len(vectors) {
		return fmt.Errorf("%w: %d vectors, %d passages, %d records",
			domain.ErrCorruptStore, len(vectors), len(passages), len(lines))
	}

	i.dims = dims
	i.ids = make([]string, len(lines))
	i.metadata = make([]domain.RecordMetadata, len(lines))
	i.vectors = vectors
	i.byID = make(map[string]int, len(lines))
	for row, line := range lines {
		var rec recordLine
		if err := json.Unmarshal([]byte(line), &rec); err != nil {
			return fmt.Errorf("%w: records line %d: %v", domain.ErrCorruptStore, row+1, err)
		}
		i.ids[row] = rec.ID
		i.byID[rec.ID] = row
		i.metadata[row] = domain.RecordMetadata{Text: passages[row], Source: rec.Source, Category: rec.Category}
	}
	return nil
}

func readVectors(path string) (int, [][]float32, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, nil, err
	}
	if len(data) < 12 || !bytes.Equal(data[:4], vectorsMagic[:]) {
		return 0, nil, fmt.Errorf("%w: %s has no valid header", domain.ErrCorruptStore, VectorsFile)
	}

	dims := int(binary.LittleEndian.Uint32(data[4:8]))
	count := int(binary.LittleEndian.Uint32(data[8:12]))
	body := data[12:]
	if len(body) != count*dims*4 {
		return 0, nil, fmt.Errorf("%w: %s holds %d bytes for %d rows of %d", domain.ErrCorruptStore, VectorsFile, len(body), count, dims)
	}

	vectors := make([][]float32, count)
	for row := range vectors {
		vec := make([]float32, dims)
		for k := range vec {
			off := (row*dims + k) * 4
			vec[k] = math.Float32frombits(binary.LittleEndian.Uint32(body[off:]))
		}
		vectors[row] = vec
	}
	return dims, vectors, nil
}

func readLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var lines []string
	r := bufio.NewReader(f)
	for {
		line, err := r.ReadString('\n')
		if len(line) > 0 {
			lines = append(lines, strings.TrimSuffix(line, "\n"))
		}
		if errors.Is(err, io.EOF) {
			return lines, nil
		}
		if err != nil {
			return nil, err
		}
	}
}

// oneLine keeps passages.txt line-oriented.
func oneLine(text string) string {
	return strings.Join(strings.Fields(text), " ")
}
