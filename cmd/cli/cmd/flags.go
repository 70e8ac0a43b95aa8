package cmd

import (
	"github.com/shopspring/decimal"
	"github.com/spf13/pflag"

	"green-roi/internal/errors"
)

// decimalValue is a pflag.Value holding an exact decimal amount
type decimalValue struct {
	value *decimal.Decimal
}

var _ pflag.Value = (*decimalValue)(nil)

func newDecimalValue(p *decimal.Decimal) *decimalValue {
	return &decimalValue{value: p}
}

func (d *decimalValue) Set(s string) error {
	v, err := decimal.NewFromString(s)
	if err != nil {
		return errors.Input("not a decimal amount: "+s, err)
	}
	*d.value = v
	return nil
}

func (d *decimalValue) String() string {
	if d.value == nil {
		return "0"
	}
	return d.value.String()
}

func (d *decimalValue) Type() string {
	return "decimal"
}

// decimalVar registers a decimal flag on fs
func decimalVar(fs *pflag.FlagSet, p *decimal.Decimal, name, usage string) {
	fs.Var(newDecimalValue(p), name, usage)
}

// optionalDecimal returns the flag value when it was given on the command line
func optionalDecimal(fs *pflag.FlagSet, name string, v decimal.Decimal) *decimal.Decimal {
	if !fs.Changed(name) {
		return nil
	}
	return &v
}
