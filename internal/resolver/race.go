package resolver

import (
	"context"
	"errors"
	"fmt"

	"github.com/alexmmd/pricewatch/internal/types"
)

// ErrNoValidResult is returned when every detector settled without producing a
// usable classification.
var ErrNoValidResult = errors.New("no valid result found")

// Detector is one labeled wait-condition tied to a page marker. Wait blocks
// until its marker appears and returns the classification, or fails when the
// context is cancelled. Detectors observe the page read-only, so losing ones
// can be abandoned without side effects.
type Detector struct {
	Label string
	Wait  func(ctx context.Context) (types.PriceInfo, error)
}

// Outcome is the settled result of a detector race.
type Outcome struct {
	Label string
	Info  types.PriceInfo
}

// Race runs every detector concurrently and returns the first one to settle
// successfully; the rest are cancelled and their results discarded. The page
// states behind the detectors are mutually exclusive renderings of one search
// outcome, so first-settled is a safe tie-break. Returns ErrNoValidResult if
// every detector failed, or the context error if the deadline expired first.
func Race(parent context.Context, detectors []Detector) (Outcome, error) {
	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	outcomes := make(chan struct {
		Outcome
		err error
	}, len(detectors))

	for _, d := range detectors {
		d := d
		go func() {
			info, err := d.Wait(ctx)
			outcomes <- struct {
				Outcome
				err error
			}{Outcome{Label: d.Label, Info: info}, err}
		}()
	}

	for failed := 0; failed < len(detectors); {
		select {
		case <-parent.Done():
			return Outcome{}, fmt.Errorf("page state race: %w", parent.Err())
		case settled := <-outcomes:
			if settled.err != nil {
				failed++
				continue
			}
			return settled.Outcome, nil
		}
	}
	return Outcome{}, ErrNoValidResult
}
