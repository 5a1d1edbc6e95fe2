// Package schema describes and checks the shape of block configuration objects as they
// appear in interchange documents.
//
// A Schema maps field names to Types. Fields are required unless wrapped in Optional;
// fields not named by the schema are ignored so documents from newer editors still load.
//
//	s := schema.Schema{
//	    "message": schema.Optional(schema.String()),
//	    "options": schema.Optional(schema.StringMap()),
//	}
//
//	var errs schema.FieldErrors
//	if err := schema.Validate(s, cfg); errors.As(err, &errs) {
//	    // errs.Fields() names the offending fields
//	}
//
// ForBlock returns the schema of each known block type. Schemas marshal to a compact
// JSON form ({"options": "{string}?"}) that UnmarshalJSON reads back.
package schema
