package archive

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/gofrs/flock"
	"gopkg.in/yaml.v3"

	"github.com/wippyai/pyboot/errors"
)

const manifestLockTimeout = 5 * time.Second

// Manifest is the YAML description of an archive TOC used by tooling.
//
//	entries:
//	  - {name: "v", type: option}
//	  - {name: "X utf8", type: option}
//	  - {name: "base_library.zip", type: zipfile}
type Manifest struct {
	Entries []ManifestEntry `yaml:"entries"`
}

type ManifestEntry struct {
	Name string `yaml:"name"`
	Type string `yaml:"type"`
}

// ParseManifest decodes a YAML manifest into a TOC.
func ParseManifest(data []byte) (List, error) {
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, errors.Wrap(errors.PhaseManifest, errors.KindInvalidInput, err, "decode manifest")
	}

	toc := make(List, 0, len(m.Entries))
	for i, e := range m.Entries {
		if e.Name == "" {
			return nil, errors.InvalidInput(errors.PhaseManifest, fmt.Sprintf("entry %d: empty name", i))
		}
		typ := e.Type
		if typ == "" {
			typ = TypeRuntimeOption.String()
		}
		code, ok := ParseTypeCode(typ)
		if !ok {
			return nil, errors.InvalidInput(errors.PhaseManifest, fmt.Sprintf("entry %d (%s): unknown type %q", i, e.Name, e.Type))
		}
		toc = append(toc, Entry{Name: e.Name, Type: code})
	}
	return toc, nil
}

// LoadManifest reads a manifest file under a shared lock so that a build
// step rewriting it is never observed half-written.
func LoadManifest(ctx context.Context, path string) (List, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, errors.Wrap(errors.PhaseManifest, errors.KindNotFound, err, "stat manifest")
	}

	lock := flock.New(path)

	lockCtx, cancel := context.WithTimeout(ctx, manifestLockTimeout)
	defer cancel()

	locked, err := lock.TryRLockContext(lockCtx, 50*time.Millisecond)
	if err != nil {
		return nil, errors.Wrap(errors.PhaseManifest, errors.KindInvalidInput, err, "lock manifest")
	}
	if !locked {
		return nil, errors.InvalidInput(errors.PhaseManifest, "timeout acquiring manifest lock")
	}
	defer func() { _ = lock.Unlock() }()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(errors.PhaseManifest, errors.KindInvalidInput, err, "read manifest")
	}
	return ParseManifest(data)
}
