package catalog

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/andreluis2005/cognira/internal/domain"
	"gopkg.in/yaml.v3"
)

// DefaultCertification identifies the built-in AWS Certified Cloud Practitioner dataset.
const DefaultCertification = "AWS_CLF_C02"

//go:embed data/aws_clf.yaml
var awsCLF []byte

// Embedded decodes the built-in dataset.
func Embedded() (Dataset, error) {
	return Decode(awsCLF)
}

// Decode parses a YAML (or JSON, which is valid YAML) dataset document.
func Decode(raw []byte) (Dataset, error) {
	var ds Dataset
	if err := yaml.Unmarshal(raw, &ds); err != nil {
		return Dataset{}, fmt.Errorf("decode dataset: %w", err)
	}
	return ds, nil
}

// EmbeddedLoader serves the built-in dataset. Useful for local runs and tests.
type EmbeddedLoader struct{}

func NewEmbeddedLoader() *EmbeddedLoader {
	return &EmbeddedLoader{}
}

func (l *EmbeddedLoader) LoadDataset(_ context.Context, certification string) (Dataset, error) {
	if certification != "" && certification != DefaultCertification {
		return Dataset{}, fmt.Errorf("%s: %w", certification, domain.ErrCatalogNotFound)
	}
	return Embedded()
}
