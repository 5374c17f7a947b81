// Package export flattens Pokémon into rows and writes them as CSV or
// Parquet, optionally uploading the result to S3.
package export

import (
	"reflect"
	"strings"

	"github.com/fleveque/poke-finder/internal/model"
)

// Row is one exported Pokémon. The parquet tags also name the CSV columns.
type Row struct {
	ID             int32  `parquet:"name=id, type=INT32"`
	Name           string `parquet:"name=name, type=BYTE_ARRAY, convertedtype=UTF8"`
	Species        string `parquet:"name=species, type=BYTE_ARRAY, convertedtype=UTF8"`
	Types          string `parquet:"name=types, type=BYTE_ARRAY, convertedtype=UTF8"`
	HP             int32  `parquet:"name=hp, type=INT32"`
	Attack         int32  `parquet:"name=attack, type=INT32"`
	Defense        int32  `parquet:"name=defense, type=INT32"`
	SpecialAttack  int32  `parquet:"name=special_attack, type=INT32"`
	SpecialDefense int32  `parquet:"name=special_defense, type=INT32"`
	Speed          int32  `parquet:"name=speed, type=INT32"`
	Generation     string `parquet:"name=generation, type=BYTE_ARRAY, convertedtype=UTF8"`
}

// NewRow flattens a detail record. Types are joined with "/" in slot order.
func NewRow(d *model.EntityDetail) Row {
	row := Row{
		ID:             int32(d.ID),
		Name:           d.Name,
		Types:          strings.Join(d.TypeNames(), "/"),
		HP:             int32(d.BaseStat("hp")),
		Attack:         int32(d.BaseStat("attack")),
		Defense:        int32(d.BaseStat("defense")),
		SpecialAttack:  int32(d.BaseStat("special-attack")),
		SpecialDefense: int32(d.BaseStat("special-defense")),
		Speed:          int32(d.BaseStat("speed")),
	}
	if d.Species != nil {
		row.Species = d.Species.Name
	}
	if gen, ok := model.GenerationOf(d.ID); ok {
		row.Generation = gen.Key
	}
	return row
}

// Columns returns the column names in field order, read from the parquet tags.
func Columns() []string {
	t := reflect.TypeOf(Row{})
	cols := make([]string, 0, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		cols = append(cols, tagName(t.Field(i).Tag.Get("parquet")))
	}
	return cols
}

func tagName(tag string) string {
	for _, part := range strings.Split(tag, ",") {
		key, value, ok := strings.Cut(strings.TrimSpace(part), "=")
		if ok && key == "name" {
			return value
		}
	}
	return ""
}
