package discovery

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/keshon/dispatchbot/internal/router"
	"gopkg.in/yaml.v2"
)

// Parse decodes one manifest. Unknown keys are rejected.
func Parse(data []byte) (*router.Command, error) {
	var m Manifest
	if err := yaml.UnmarshalStrict(data, &m); err != nil {
		return nil, err
	}
	return m.Command()
}

// LoadDir reads every .yml and .yaml file under dir, in lexical order.
//
// A broken file does not stop the scan: the commands that could be read are
// returned together with one joined error naming each bad file.
func LoadDir(dir string) ([]*router.Command, error) {
	if dir == "" {
		return nil, nil
	}
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("commands dir: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("commands dir %q is not a directory", dir)
	}

	var (
		cmds []*router.Command
		errs []error
	)
	err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !isManifest(path) {
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", path, err))
			return nil
		}
		cmd, err := Parse(data)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", path, err))
			return nil
		}
		cmds = append(cmds, cmd)
		return nil
	})
	if err != nil {
		return cmds, fmt.Errorf("walk %s: %w", dir, err)
	}
	return cmds, errors.Join(errs...)
}

func isManifest(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yml", ".yaml":
		return true
	}
	return false
}
