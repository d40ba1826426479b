package carapi

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeCoercion(t *testing.T) {
	m := DefaultConfig().Mapping

	rec := Normalize(m, map[string]any{"carYear": "abc", "carPrice": "12.5"})
	assert.Nil(t, rec.Year)
	assert.Equal(t, 12.5, rec.Price)

	rec = Normalize(m, map[string]any{"carYear": "2020", "carPrice": "bad"})
	require.NotNil(t, rec.Year)
	assert.Equal(t, 2020, *rec.Year)
	assert.Equal(t, 0.0, rec.Price)

	rec = Normalize(m, map[string]any{"carYear": json.Number("1999"), "carPrice": json.Number("1e3")})
	require.NotNil(t, rec.Year)
	assert.Equal(t, 1999, *rec.Year)
	assert.Equal(t, 1000.0, rec.Price)

	rec = Normalize(m, map[string]any{"carYear": nil, "carPrice": "Inf"})
	assert.Nil(t, rec.Year)
	assert.Equal(t, 0.0, rec.Price)

	rec = Normalize(m, map[string]any{"carYear": "  ", "carPrice": true})
	assert.Nil(t, rec.Year)
	assert.Equal(t, 1.0, rec.Price)

	rec = Normalize(m, map[string]any{"carYear": 2020.7})
	require.NotNil(t, rec.Year)
	assert.Equal(t, 2020, *rec.Year)
}

func TestNormalizeFields(t *testing.T) {
	m := DefaultConfig().Mapping

	rec := Normalize(m, map[string]any{"carId": json.Number("5"), "carName": "Audi"})
	assert.Equal(t, json.Number("5"), rec.ID)
	assert.Equal(t, "Audi", rec.Brand)
	assert.Equal(t, "Audi", rec.Name)
	assert.Equal(t, "", rec.Model)

	rec = Normalize(m, map[string]any{"carId": "abc-1", "carModel": nil})
	assert.Equal(t, "abc-1", rec.ID)
	assert.Equal(t, "", rec.Model)

	rec = Normalize(m, nil)
	assert.Nil(t, rec.ID)
	assert.Nil(t, rec.Year)
	assert.Equal(t, 0.0, rec.Price)
}

func TestNormalizeRemappedKeys(t *testing.T) {
	cfg := ConfigPatch{Mapping: &MappingPatch{Brand: StringPtr("make"), Year: StringPtr("built")}}.Apply(DefaultConfig())
	rec := Normalize(cfg.Mapping, map[string]any{"make": "Saab", "built": 1988, "carName": "ignored"})
	assert.Equal(t, "Saab", rec.Brand)
	require.NotNil(t, rec.Year)
	assert.Equal(t, 1988, *rec.Year)
}

func TestDenormalizeDiscriminator(t *testing.T) {
	cfg := DefaultConfig()

	p := Denormalize(cfg, Record{Brand: "Audi", Model: "A4", Price: 1, Year: IntPtr(2020)})
	v, _ := field(p, "$type")
	assert.Equal(t, "carModel", v)
	v, ok := field(p, "carModel")
	assert.True(t, ok)
	assert.Equal(t, "A4", v)

	for _, model := range []string{"", "   "} {
		p = Denormalize(cfg, Record{Brand: "Audi", Model: model})
		v, _ = field(p, "$type")
		assert.Equal(t, "car", v)
		_, ok = field(p, "carModel")
		assert.False(t, ok, "model key must be omitted for %q", model)
	}

	cfg.TypeEnabled = false
	p = Denormalize(cfg, Record{Brand: "Audi", Model: "A4"})
	_, ok = field(p, "$type")
	assert.False(t, ok)
}

func TestDenormalizeID(t *testing.T) {
	cfg := DefaultConfig()

	p := Denormalize(cfg, Record{ID: nil, Brand: "Audi"})
	_, ok := field(p, "carId")
	assert.False(t, ok)

	p = Denormalize(cfg, Record{ID: json.Number("7"), Brand: "Audi"})
	v, ok := field(p, "carId")
	assert.True(t, ok)
	assert.Equal(t, json.Number("7"), v)

	p = Denormalize(cfg, Record{ID: 0, Brand: "Audi"})
	_, ok = field(p, "carId")
	assert.True(t, ok, "zero is a valid identifier")
}

func TestDenormalizeOrderAndEncoding(t *testing.T) {
	p := Denormalize(DefaultConfig(), Record{ID: json.Number("3"), Brand: "Audi", Model: "A4", Price: 99.5})
	assert.Equal(t, []string{"$type", "carId", "carName", "carYear", "carPrice", "carModel"}, p.keys)

	data, err := json.Marshal(p)
	require.NoError(t, err)
	assert.Equal(t, `{"$type":"carModel","carId":3,"carName":"Audi","carYear":null,"carPrice":99.5,"carModel":"A4"}`, string(data))
}

func TestPayloadSetKeepsPosition(t *testing.T) {
	p := NewPayload()
	p.Set("a", 1)
	p.Set("b", 2)
	p.Set("a", 3)
	assert.Equal(t, []string{"a", "b"}, p.keys)
	assert.Equal(t, map[string]any{"a": 3, "b": 2}, p.values)
}

func TestRoundTrip(t *testing.T) {
	cfg := DefaultConfig()
	externals := []map[string]any{
		{"carId": json.Number("1"), "carName": "Audi", "carModel": "A4", "carPrice": json.Number("100.25"), "carYear": json.Number("2020")},
		{"carId": json.Number("2"), "carName": "Volvo", "carModel": "", "carPrice": json.Number("0"), "carYear": json.Number("1999")},
		{"carId": "x-3", "carName": "Saab", "carPrice": json.Number("5")},
	}

	for _, ext := range externals {
		rec := Normalize(cfg.Mapping, ext)
		out := Denormalize(cfg, rec)

		brand, _ := field(out, "carName")
		assert.Equal(t, rec.Brand, brand)
		assert.Equal(t, ext["carName"], brand)

		price, _ := field(out, "carPrice")
		assert.Equal(t, rec.Price, price)

		year, _ := field(out, "carYear")
		if rec.Year == nil {
			assert.Nil(t, year)
		} else {
			assert.Equal(t, *rec.Year, year)
		}

		model, hasModel := field(out, "carModel")
		if HasModel(rec.Model) {
			assert.Equal(t, ext["carModel"], model)
		} else {
			assert.False(t, hasModel)
		}

		id, _ := field(out, "carId")
		assert.Equal(t, ext["carId"], id)
	}
}

func field(p *Payload, key string) (any, bool) {
	v, ok := p.values[key]
	return v, ok
}
