package models_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/matheuscscp/obrawiser/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePrice(t *testing.T) {
	for _, tt := range []struct {
		text     string
		expected models.Price
		ok       bool
	}{
		{text: "50", expected: 50, ok: true},
		{text: "50.5", expected: 50.5, ok: true},
		{text: "50,00", expected: 50, ok: true},
		{text: "R$ 12,90", expected: 12.9, ok: true},
		{text: "1.234,50", expected: 1234.5, ok: true},
		{text: "1,234.50", expected: 1234.5, ok: true},
		{text: "1.234.567", expected: 1234567, ok: true},
		{text: "-4", expected: -4, ok: true},
		{text: "N/A", ok: false},
		{text: "", ok: false},
		{text: "1,2,3", ok: false},
	} {
		t.Run(tt.text, func(t *testing.T) {
			tt := tt
			t.Parallel()

			actual, ok := models.ParsePrice(tt.text)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.expected, actual)
		})
	}
}

func TestParseExpenseRecord(t *testing.T) {
	for _, tt := range []struct {
		name     string
		payload  string
		expected models.ExpenseRecord
	}{
		{
			name:    "complete",
			payload: `{"item":"cimento","price":50,"quantity":"10 sacos","category":"Alvenaria","project":"Centro"}`,
			expected: models.ExpenseRecord{
				Item:     "cimento",
				Price:    50,
				Quantity: "10 sacos",
				Category: "Alvenaria",
				Project:  "Centro",
			},
		},
		{
			name:    "missing fields",
			payload: `{"item":"cimento","price":50,"project":"Centro"}`,
			expected: models.ExpenseRecord{
				Item:     "cimento",
				Price:    50,
				Quantity: "N/A",
				Category: "N/A",
				Project:  "Centro",
			},
		},
		{
			name:    "empty object",
			payload: `{}`,
			expected: models.ExpenseRecord{
				Item:     "N/A",
				Quantity: "N/A",
				Category: "N/A",
				Project:  "N/A",
			},
		},
		{
			name:    "price as string",
			payload: `{"item":"tinta","price":"R$ 89,90","quantity":"2 latas","category":"Pintura","project":"Jardim"}`,
			expected: models.ExpenseRecord{
				Item:     "tinta",
				Price:    89.9,
				Quantity: "2 latas",
				Category: "Pintura",
				Project:  "Jardim",
			},
		},
		{
			name:    "price not available",
			payload: `{"item":"areia","price":"N/A","quantity":" ","category":"","project":"Centro"}`,
			expected: models.ExpenseRecord{
				Item:     "areia",
				Quantity: "N/A",
				Category: "N/A",
				Project:  "Centro",
			},
		},
		{
			name:    "negative price",
			payload: `{"item":"desconto","price":-10,"quantity":"1 un","category":"N/A","project":"Centro"}`,
			expected: models.ExpenseRecord{
				Item:     "desconto",
				Quantity: "1 un",
				Category: "N/A",
				Project:  "Centro",
			},
		},
		{
			name:    "non-string text fields",
			payload: `{"item":"areia","price":30,"quantity":10,"category":null,"project":12.5}`,
			expected: models.ExpenseRecord{
				Item:     "areia",
				Price:    30,
				Quantity: "10",
				Category: "N/A",
				Project:  "12.5",
			},
		},
		{
			name:    "nested text field",
			payload: `{"item":"tijolo","price":1,"quantity":{"amount": 100, "unit": "un"},"project":"Centro"}`,
			expected: models.ExpenseRecord{
				Item:     "tijolo",
				Price:    1,
				Quantity: `{"amount":100,"unit":"un"}`,
				Category: "N/A",
				Project:  "Centro",
			},
		},
		{
			name:    "null price",
			payload: `{"item":"tubo","price":null,"project":"Centro"}`,
			expected: models.ExpenseRecord{
				Item:     "tubo",
				Quantity: "N/A",
				Category: "N/A",
				Project:  "Centro",
			},
		},
	} {
		t.Run(tt.name, func(t *testing.T) {
			tt := tt
			t.Parallel()

			record, err := models.ParseExpenseRecord([]byte(tt.payload))
			require.NoError(t, err)
			assert.Equal(t, tt.expected, *record)
		})
	}
}

func TestParseExpenseRecordInvalidJSON(t *testing.T) {
	for _, tt := range []struct {
		name    string
		payload string
	}{
		{name: "text", payload: "Comprei cimento"},
		{name: "null", payload: "null"},
		{name: "padded null", payload: " null\n"},
		{name: "array", payload: `[{"item":"cimento"}]`},
		{name: "number", payload: "50"},
		{name: "string", payload: `"cimento"`},
		{name: "empty", payload: ""},
	} {
		t.Run(tt.name, func(t *testing.T) {
			record, err := models.ParseExpenseRecord([]byte(tt.payload))
			assert.ErrorIs(t, err, models.ErrNotAnObject)
			assert.Nil(t, record)
		})
	}

	record, err := models.ParseExpenseRecord([]byte(`{"item":`))
	assert.Error(t, err)
	assert.Nil(t, record)
}

func TestExpenseRecordConfirmationMessage(t *testing.T) {
	record := &models.ExpenseRecord{Item: "cimento", Price: 50, Project: "Centro"}
	assert.Equal(t, "✅ Gasto registrado!\nItem: cimento\nValor: 50\nObra: Centro", record.ConfirmationMessage())

	record.Price = 12.5
	assert.Contains(t, record.ConfirmationMessage(), "Valor: 12.5\n")
}

func TestExpenseRecordRow(t *testing.T) {
	record := &models.ExpenseRecord{
		Item:     "cimento",
		Price:    50,
		Quantity: "N/A",
		Category: "N/A",
		Project:  "Centro",
	}
	ts := time.Date(2026, time.October, 17, 9, 5, 3, 0, time.UTC)

	row := record.Row(ts)
	require.Len(t, row, 7)
	assert.Equal(t, "17/10/2026, 09:05:03", row[0])
	assert.Equal(t, "cimento", row[1])
	assert.Equal(t, float64(50), row[2])
	assert.Equal(t, "N/A", row[3])
	assert.Equal(t, "N/A", row[4])
	assert.Equal(t, "Centro", row[5])

	var raw map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(row[6].(string)), &raw))
	assert.Equal(t, map[string]interface{}{
		"item":     "cimento",
		"price":    float64(50),
		"quantity": "N/A",
		"category": "N/A",
		"project":  "Centro",
	}, raw)
}
