// Package dfe implements a fixed-point Digital Front End receive pipeline
// in pure Go.
//
// A pipeline is an ordered subset of four clocked stages sharing one
// synchronous tick:
//
//   - Polyphase rational resampler (L/M) built from L*M FIR branches over a
//     single read-only coefficient store
//   - Biquad notch filter in Direct Form II Transposed
//   - CIC decimator: K integrators, a rate-R gate and K combs
//   - Optional CIC compensation FIR, selected by decimation rate
//
// All arithmetic is integer. Every register has a declared width and an
// explicit overflow policy ([Saturate] or [Wrap]), so results are bit-exact
// and deterministic across platforms.
//
// # Quick Start
//
//	cfg := dfe.DefaultConfig(2, 3, 8)
//	p, err := dfe.New(&cfg, &dfe.Coefficients{
//	    Resampler: resamplerTaps, // 2*3*8 values, Q1.15
//	    Notch:     notchTaps,     // b0 b1 b2 a1 a2, Q2.14
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	for _, x := range input {
//	    for !p.Ready() {
//	        out, _ := p.Tick(dfe.Sample{})
//	        consume(out)
//	    }
//	    out, err := p.Tick(dfe.Valid(x))
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    consume(out)
//	}
//
// [Pipeline.Process] and [Pipeline.Flush] wrap this loop for block input.
//
// # Tick Semantics
//
// Every stage publishes a registered output. [Pipeline.Tick] snapshots all
// published outputs, resolves readiness from the last stage back to the
// first, evaluates every stage that may advance against the snapshot and
// then commits all of them at once. A stage whose output is valid but not
// taken downstream holds; nothing is dropped or duplicated outside the
// designed rate-change points (the resampler output and the CIC gate).
//
// The resampler accepts input only while idle. A sample offered while it is
// busy is a protocol violation handled by [OverrunPolicy]: it is either
// refused with [ErrProtocolViolation] or parked in a one-deep skid
// register. A valid input outside the signed DataWidth range is refused
// the same way. Building with -tags dfedebug turns violations into panics.
//
// # Configuration
//
// [Config] is validated once by [New]; every construction error wraps
// [ErrConfiguration]. [LoadConfig] reads the same parameters from YAML
// together with the coefficient text files, one integer per line.
//
// # Thread Safety
//
// A [Pipeline] must be driven by one goroutine. Coefficient stores are
// immutable after construction and may be shared.
package dfe
