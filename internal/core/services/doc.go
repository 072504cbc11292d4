// Package services implements the driving port interfaces.
// Services contain the core business logic and orchestrate
// calls to driven ports (adapters).
//
// Every outbound call made here runs under its own timeout derived from
// the configured settings; deadline failures surface as domain.ErrTimeout.
package services
