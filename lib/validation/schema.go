package validation

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// MovieListSchema describes the body of GET /api/peliculas and /api/buscar.
var MovieListSchema = `{
	"type": "array",
	"items": {
		"type": "object",
		"properties": {
			"id_pelicula": {"type": "integer", "minimum": 1},
			"titulo": {"type": "string", "minLength": 1},
			"año_lanzamiento": {"type": "integer"},
			"duracion_minutos": {"type": "integer"},
			"sinopsis": {"type": ["string", "null"]},
			"calificacion": {"type": "number", "minimum": 0, "maximum": 10},
			"id_genero": {"type": "integer"},
			"id_director": {"type": "integer"},
			"poster_url": {"type": ["string", "null"]},
			"genero": {"type": "string"},
			"director": {"type": "string"}
		},
		"required": ["id_pelicula", "titulo", "año_lanzamiento", "duracion_minutos", "calificacion", "id_genero", "id_director"]
	}
}`

// GenreListSchema describes the body of GET /api/generos.
var GenreListSchema = `{
	"type": "array",
	"items": {
		"type": "object",
		"properties": {
			"id": {"type": "integer", "minimum": 1},
			"nombre": {"type": "string"}
		},
		"required": ["id", "nombre"]
	}
}`

// DirectorListSchema describes the body of GET /api/directores.
var DirectorListSchema = `{
	"type": "array",
	"items": {
		"type": "object",
		"properties": {
			"id": {"type": "integer", "minimum": 1},
			"nombre": {"type": "string"},
			"apellido": {"type": "string"}
		},
		"required": ["id", "nombre", "apellido"]
	}
}`

// ValidateResponse validates a JSON document against a schema.
func ValidateResponse(schema string, jsonData []byte) error {
	schemaLoader := gojsonschema.NewStringLoader(schema)
	documentLoader := gojsonschema.NewBytesLoader(jsonData)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return fmt.Errorf("failed to validate JSON schema: %w", err)
	}

	if !result.Valid() {
		var errorMessages []string
		for _, desc := range result.Errors() {
			errorMessages = append(errorMessages, desc.String())
		}
		return fmt.Errorf("JSON validation failed: %s", strings.Join(errorMessages, "; "))
	}

	return nil
}

// ValidateAndParse validates jsonData against schema and decodes it into v.
func ValidateAndParse(schema string, jsonData []byte, v any) error {
	if err := ValidateResponse(schema, jsonData); err != nil {
		return err
	}

	if err := json.Unmarshal(jsonData, v); err != nil {
		return fmt.Errorf("failed to unmarshal JSON: %w", err)
	}

	return nil
}
