package response

import (
	"github.com/google/uuid"
	"github.com/jinzhu/copier"
	"github.com/shopspring/decimal"
)

// Money and ids leave the API as strings; amounts always carry two decimals.
var viewConverters = []copier.TypeConverter{
	{
		SrcType: decimal.Decimal{},
		DstType: copier.String,
		Fn: func(src any) (any, error) {
			return src.(decimal.Decimal).StringFixed(2), nil
		},
	},
	{
		SrcType: uuid.UUID{},
		DstType: copier.String,
		Fn: func(src any) (any, error) {
			return src.(uuid.UUID).String(), nil
		},
	},
	{
		SrcType: &uuid.UUID{},
		DstType: new(string),
		Fn: func(src any) (any, error) {
			id, _ := src.(*uuid.UUID)
			if id == nil {
				return (*string)(nil), nil
			}
			s := id.String()
			return &s, nil
		},
	},
}

// mustCopy panics only on a programming error (mismatched DTO shape); the
// registered conversions themselves cannot fail.
func mustCopy(dst, src any) {
	if err := copier.CopyWithOption(dst, src, copier.Option{
		DeepCopy:   true,
		Converters: viewConverters,
	}); err != nil {
		panic("response mapping: " + err.Error())
	}
}
