package config

import (
	"bytes"
	"encoding/json"
	"io"
	"path/filepath"
	"strings"

	"github.com/a8m/envsubst"
	"github.com/pkg/errors"
	"github.com/yosuke-furukawa/json5/encoding/json5"

	"go.viam.com/visim/logging"
)

// Read reads a config from the given file. Environment variables in the file are expanded before
// it is decoded. Files ending in .json5 may use comments, unquoted keys and trailing commas.
func Read(filePath string, logger logging.Logger) (*Config, error) {
	buf, err := envsubst.ReadFile(filePath)
	if err != nil {
		return nil, err
	}
	if strings.EqualFold(filepath.Ext(filePath), ".json5") {
		if buf, err = normalizeJSON5(buf); err != nil {
			return nil, errors.Wrapf(err, "failed to parse %q as json5", filePath)
		}
	}
	return FromReader(filePath, bytes.NewReader(buf), logger)
}

// normalizeJSON5 rewrites a json5 document as plain json so it can be decoded strictly.
func normalizeJSON5(buf []byte) ([]byte, error) {
	var doc interface{}
	if err := json5.Unmarshal(buf, &doc); err != nil {
		return nil, err
	}
	return json.Marshal(doc)
}

// FromReader reads a config from the given reader and specifies
// where, if applicable, the file the reader originated from.
func FromReader(originalPath string, r io.Reader, logger logging.Logger) (*Config, error) {
	cfg := Config{ConfigFilePath: originalPath}
	decoder := json.NewDecoder(r)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&cfg); err != nil {
		return nil, errors.Wrap(err, "failed to decode Config from json")
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "failed to validate Config")
	}

	if cfg.Trajectory.PoseFile != "" && originalPath != "" && !filepath.IsAbs(cfg.Trajectory.PoseFile) {
		cfg.Trajectory.PoseFile = filepath.Join(filepath.Dir(originalPath), cfg.Trajectory.PoseFile)
	}
	if logger == nil {
		logger = logging.Global()
	}
	logger.Debugw("read config", "path", originalPath, "bias", cfg.IMU.Bias.Type, "pose_file", cfg.Trajectory.PoseFile)
	return &cfg, nil
}
