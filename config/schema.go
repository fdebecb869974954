package config

import (
	"github.com/invopop/jsonschema"
	"github.com/pkg/errors"
)

// RegisteredBiasAttributeSchemas maps the bias model types to the attributes needed to create them.
var RegisteredBiasAttributeSchemas = map[string]*jsonschema.Schema{
	BiasTypeConstant:   jsonschema.Reflect(&ConstantBiasAttributes{}),
	BiasTypeContinuous: jsonschema.Reflect(&ContinuousBiasAttributes{}),
}

// Schema returns the JSON schema of a simulation config.
func Schema() *jsonschema.Schema {
	return jsonschema.Reflect(&Config{})
}

// BiasAttributeSchema returns the JSON schema of the attributes of the given bias model type.
func BiasAttributeSchema(biasType string) (*jsonschema.Schema, error) {
	schema, ok := RegisteredBiasAttributeSchemas[biasType]
	if !ok {
		return nil, errors.Errorf("unknown bias type %q", biasType)
	}
	return schema, nil
}
