// Package extractors turns uploaded files into plain text.
//
// Each FormatExtractor handles a family of file extensions. The Registry
// picks one by extension and implements driven.Extractor: it never fails,
// logging extractor errors and returning "" instead.
package extractors
