// Package artifact persists the fitted model together with the transformers
// needed to reproduce its input rows.
package artifact

import (
	"bytes"
	"crypto/sha256"
	"encoding/gob"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/op/go-logging"

	"salesforecast/pkg/dataprep"
	"salesforecast/pkg/model"
	"salesforecast/pkg/stats"
)

var log = logging.MustGetLogger("log")

// File names inside an artifact directory.
const (
	ModelFile        = "sales_forecast.gob"
	EncoderFile      = "encoder.gob"
	ScalerFile       = "scaler.gob"
	FeatureOrderFile = "feature_order.gob"
	ManifestFile     = "manifest.json"
)

var ErrNotFound = errors.New("artifact: not found")

// Manifest describes a saved bundle. It is informational: Load only warns
// when it is missing or disagrees with the files.
type Manifest struct {
	RunID     string            `json:"run_id"`
	CreatedAt time.Time         `json:"created_at"`
	Model     string            `json:"model"`
	Files     map[string]string `json:"files"` // name -> sha256
}

// Bundle is everything the inference service needs.
type Bundle struct {
	Model        model.Regressor
	Encoder      *dataprep.OneHotEncoder
	Scaler       *stats.MinMaxScaler
	FeatureOrder []string
	Manifest     Manifest
}

// Save writes the bundle into dir, creating it if needed.
func Save(dir string, b *Bundle) error {
	if b.Model == nil || b.Encoder == nil || b.Scaler == nil || len(b.FeatureOrder) == 0 {
		return errors.New("artifact: incomplete bundle")
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("artifact: create dir: %w", err)
	}

	files := []struct {
		name string
		v    any
	}{
		{ModelFile, &b.Model},
		{EncoderFile, b.Encoder},
		{ScalerFile, b.Scaler},
		{FeatureOrderFile, b.FeatureOrder},
	}
	b.Manifest.Model = b.Model.Name()
	if b.Manifest.CreatedAt.IsZero() {
		b.Manifest.CreatedAt = time.Now().UTC()
	}
	b.Manifest.Files = make(map[string]string, len(files))
	for _, f := range files {
		sum, err := writeGob(filepath.Join(dir, f.name), f.v)
		if err != nil {
			return err
		}
		b.Manifest.Files[f.name] = sum
	}

	raw, err := json.MarshalIndent(b.Manifest, "", "  ")
	if err != nil {
		return fmt.Errorf("artifact: encode manifest: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, ManifestFile), raw, 0644); err != nil {
		return fmt.Errorf("artifact: write manifest: %w", err)
	}
	log.Infof("Saved %s model artifacts to %s (run %s)", b.Manifest.Model, dir, b.Manifest.RunID)
	return nil
}

func writeGob(path string, v any) (string, error) {
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("artifact: create %s: %w", filepath.Base(path), err)
	}
	defer f.Close()
	h := sha256.New()
	if err := gob.NewEncoder(io.MultiWriter(f, h)).Encode(v); err != nil {
		return "", fmt.Errorf("artifact: encode %s: %w", filepath.Base(path), err)
	}
	return hex.EncodeToString(h.Sum(nil)), f.Close()
}

func readGob(path string, v any) (string, error) {
	raw, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("%w: %s", ErrNotFound, filepath.Base(path))
	}
	if err != nil {
		return "", fmt.Errorf("artifact: read %s: %w", filepath.Base(path), err)
	}
	if err := gob.NewDecoder(bytes.NewReader(raw)).Decode(v); err != nil {
		return "", fmt.Errorf("artifact: decode %s: %w", filepath.Base(path), err)
	}
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:]), nil
}

// Load reads a bundle from dir.
func Load(dir string) (*Bundle, error) {
	b := &Bundle{Encoder: &dataprep.OneHotEncoder{}, Scaler: &stats.MinMaxScaler{}}
	sums := map[string]string{}
	files := []struct {
		name string
		v    any
	}{
		{ModelFile, &b.Model},
		{EncoderFile, b.Encoder},
		{ScalerFile, b.Scaler},
		{FeatureOrderFile, &b.FeatureOrder},
	}
	for _, f := range files {
		sum, err := readGob(filepath.Join(dir, f.name), f.v)
		if err != nil {
			return nil, err
		}
		sums[f.name] = sum
	}
	if b.Model == nil {
		return nil, fmt.Errorf("artifact: %s holds no model", ModelFile)
	}

	raw, err := os.ReadFile(filepath.Join(dir, ManifestFile))
	switch {
	case errors.Is(err, fs.ErrNotExist):
		log.Warningf("No %s in %s; artifact compatibility is not checked", ManifestFile, dir)
	case err != nil:
		log.Warningf("Reading %s: %v", ManifestFile, err)
	default:
		if err := json.Unmarshal(raw, &b.Manifest); err != nil {
			log.Warningf("Decoding %s: %v", ManifestFile, err)
			break
		}
		for name, sum := range sums {
			if want, ok := b.Manifest.Files[name]; !ok || want != sum {
				log.Warningf("%s does not match the manifest of run %s", name, b.Manifest.RunID)
			}
		}
		if b.Manifest.Model != "" && b.Manifest.Model != b.Model.Name() {
			log.Warningf("Manifest names model %q but %s holds %q", b.Manifest.Model, ModelFile, b.Model.Name())
		}
	}
	log.Infof("Loaded %s model with %d features from %s", b.Model.Name(), len(b.FeatureOrder), dir)
	return b, nil
}
