package repository

import (
	"handicraft-store/internal/pkg/pgconv"

	"github.com/shopspring/decimal"
)

// numericText receives a NUMERIC column selected as ::text.
type numericText struct {
	raw string
	dst *decimal.Decimal
}

func numeric(dst *decimal.Decimal) *numericText {
	return &numericText{dst: dst}
}

func decodeNumerics(cols ...*numericText) error {
	for _, c := range cols {
		d, err := pgconv.DecimalFromText(c.raw)
		if err != nil {
			return err
		}
		*c.dst = d
	}
	return nil
}
