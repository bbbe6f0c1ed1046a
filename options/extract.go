package options

import (
	"math"
	"strings"

	"go.uber.org/zap"

	"github.com/wippyai/pyboot/archive"
	"github.com/wippyai/pyboot/errors"
	"github.com/wippyai/pyboot/wchar"
)

// PrivatePrefix marks bootloader-internal options that are never passed to
// the runtime.
const PrivatePrefix = "pyi-"

const (
	warnPrefix = "W "
	xPrefix    = "X "
)

type entryKind int

const (
	kindIgnored entryKind = iota
	kindVerbose
	kindUnbuffered
	kindOptimize
	kindWarn
	kindX
	kindHashSeed
)

func classify(name string) entryKind {
	if strings.HasPrefix(name, PrivatePrefix) {
		return kindIgnored
	}
	switch name {
	case "v", "verbose":
		return kindVerbose
	case "u", "unbuffered":
		return kindUnbuffered
	case "O", "optimize":
		return kindOptimize
	}
	switch {
	case strings.HasPrefix(name, warnPrefix):
		return kindWarn
	case strings.HasPrefix(name, xPrefix):
		return kindX
	}
	if v, ok := MatchKeyValue(name, "hash_seed"); ok && v != "" {
		return kindHashSeed
	}
	return kindIgnored
}

// Extract reads the runtime-option entries of toc into a new Bundle.
// W and X flag text is converted with enc. On failure nothing is returned
// and everything converted so far is released.
func Extract(toc archive.TOC, enc *wchar.Encoding) (*Bundle, error) {
	b := &Bundle{
		enc:      enc,
		UTF8Mode: Auto,
	}

	// Scalars, and exact sizes for the flag arrays.
	var numWarn, numX int
	for e := range archive.Options(toc) {
		switch classify(e.Name) {
		case kindVerbose:
			b.Verbose++
		case kindUnbuffered:
			b.Unbuffered = true
		case kindOptimize:
			b.Optimize++
		case kindWarn:
			numWarn++
		case kindX:
			numX++
		case kindHashSeed:
			if !b.UseHashSeed {
				v, _ := MatchKeyValue(e.Name, "hash_seed")
				b.UseHashSeed = true
				b.HashSeed = parseUint(v)
			}
		}
	}

	b.WarnFlags = make([]wchar.String, 0, numWarn)
	b.XFlags = make([]wchar.String, 0, numX)

	for e := range archive.Options(toc) {
		kind := classify(e.Name)
		if kind != kindWarn && kind != kindX {
			continue
		}

		flag := e.Name[2:]
		w, err := enc.Encode(flag)
		if err != nil {
			Free(b)
			return nil, errors.ConversionFailed(errors.PhaseOptions, e.Name, err)
		}

		if kind == kindWarn {
			b.WarnFlags = append(b.WarnFlags, w)
			continue
		}

		b.XFlags = append(b.XFlags, w)
		if v, ok := MatchKeyValue(flag, "utf8"); ok {
			if flagEnabled(v) {
				b.UTF8Mode = On
			} else {
				b.UTF8Mode = Off
			}
		}
		if v, ok := MatchKeyValue(flag, "dev"); ok {
			b.DevMode = flagEnabled(v)
		}
	}

	Logger().Debug("runtime options extracted",
		zap.Uint("verbose", b.Verbose),
		zap.Uint("optimize", b.Optimize),
		zap.Int("warnoptions", len(b.WarnFlags)),
		zap.Int("xoptions", len(b.XFlags)),
		zap.Bool("use_hash_seed", b.UseHashSeed),
		zap.Stringer("utf8_mode", b.UTF8Mode),
	)
	return b, nil
}

// MatchKeyValue matches flag against a "name", "name=value" or
// "name value" form and returns the value. A flag that merely starts with
// name ("devmode" for "dev") does not match.
func MatchKeyValue(flag, name string) (string, bool) {
	rest, ok := strings.CutPrefix(flag, name)
	if !ok {
		return "", false
	}
	if rest == "" {
		return "", true
	}
	if rest[0] == '=' || rest[0] == ' ' {
		return rest[1:], true
	}
	return "", false
}

// flagEnabled reports a bare flag or any value other than "0" as enabled.
func flagEnabled(value string) bool {
	return value != "0"
}

// parseUint parses the longest leading base-10 number of s, after optional
// whitespace and '+'. Trailing garbage is ignored and overflow saturates,
// like strtoul. No digits yields zero.
func parseUint(s string) uint64 {
	s = strings.TrimLeft(s, " \t\n\v\f\r")
	s = strings.TrimPrefix(s, "+")

	var n uint64
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c < '0' || c > '9' {
			break
		}
		d := uint64(c - '0')
		if n > (math.MaxUint64-d)/10 {
			return math.MaxUint64
		}
		n = n*10 + d
	}
	return n
}
