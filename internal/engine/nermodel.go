package engine

import (
	"context"

	"github.com/bazarlab/adextract/internal/model"
	"github.com/bazarlab/adextract/pkg/nerclient"
)

// NERModel adapts the HTTP model client to the ModelExtractor interface.
type NERModel struct {
	client nerclient.Client
}

// NewNERModel wraps a model service client.
func NewNERModel(client nerclient.Client) *NERModel {
	return &NERModel{client: client}
}

func (m *NERModel) Extract(ctx context.Context, text string) (model.RawFields, error) {
	resp, err := m.client.Extract(ctx, text)
	if err != nil {
		return model.RawFields{}, err
	}
	return model.RawFields{
		Mileage: resp.Mileage,
		Year:    resp.Year,
		Power:   resp.Power,
		Fuel:    resp.Fuel,
	}, nil
}
