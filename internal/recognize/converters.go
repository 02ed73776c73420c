package recognize

import (
	"strconv"
	"strings"

	"github.com/dekarrin/voxgraph/internal/vgerr"
)

// ConverterFunc transforms the substituted tokens collected inside one
// __convert__/__converted__ frame, operating element-wise. args are the
// comma-joined parameters carried on the marker name, if any. Converters
// are free to change a token's Kind, not just its text, and a chained
// converter (e.g. "!int!square") receives whatever Kind the previous
// converter in the chain produced.
type ConverterFunc func(tokens []Value, args []string) ([]Value, error)

// DefaultConverters returns the built-in converter set.
func DefaultConverters() map[string]ConverterFunc {
	return map[string]ConverterFunc{
		"int":   convertInt,
		"float": convertFloat,
		"bool":  convertBool,
		"lower": convertLower,
		"upper": convertUpper,
	}
}

func convertInt(tokens []Value, _ []string) ([]Value, error) {
	out := make([]Value, len(tokens))
	for i, tok := range tokens {
		v, err := strconv.Atoi(strings.TrimSpace(tok.String()))
		if err != nil {
			return nil, vgerr.WrapConverterFailure("int", err)
		}
		out[i] = IntValue(v)
	}
	return out, nil
}

func convertFloat(tokens []Value, _ []string) ([]Value, error) {
	out := make([]Value, len(tokens))
	for i, tok := range tokens {
		v, err := strconv.ParseFloat(strings.TrimSpace(tok.String()), 64)
		if err != nil {
			return nil, vgerr.WrapConverterFailure("float", err)
		}
		out[i] = FloatValue(v)
	}
	return out, nil
}

func convertBool(tokens []Value, _ []string) ([]Value, error) {
	out := make([]Value, len(tokens))
	for i, tok := range tokens {
		switch strings.ToLower(strings.TrimSpace(tok.String())) {
		case "on", "yes", "true", "1":
			out[i] = BoolValue(true)
		case "off", "no", "false", "0":
			out[i] = BoolValue(false)
		default:
			return nil, vgerr.WrapConverterFailure("bool", vgerr.GrammarParsef("%q is not a recognized boolean token", tok.String()))
		}
	}
	return out, nil
}

func convertLower(tokens []Value, _ []string) ([]Value, error) {
	out := make([]Value, len(tokens))
	for i, tok := range tokens {
		out[i] = StringValue(strings.ToLower(tok.String()))
	}
	return out, nil
}

func convertUpper(tokens []Value, _ []string) ([]Value, error) {
	out := make([]Value, len(tokens))
	for i, tok := range tokens {
		out[i] = StringValue(strings.ToUpper(tok.String()))
	}
	return out, nil
}
