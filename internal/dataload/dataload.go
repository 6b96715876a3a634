// Package dataload resolves the configured data option into the value
// every template in a build pass renders against.
package dataload

import (
	"context"
	"encoding/json"
	"os"

	"github.com/ahmader/handlebars-webpack-plugin/internal/deps"
	"github.com/ahmader/handlebars-webpack-plugin/internal/logging"
)

// Load resolves the data option for one build pass.
//
// A string option is first tried as a path to a JSON document: on a
// successful read and parse the file is recorded in the ledger and the
// parsed value returned. Any failure along the way (missing file,
// malformed JSON) falls back to using the string itself as the data
// value; that is an informational condition, not an error. Non-string
// options are returned verbatim with no ledger entry.
//
// Load runs once per pass, before any template renders, so all entry
// files share one resolved data snapshot.
func Load(option interface{}, ledger *deps.Tracker, logger logging.Logger) interface{} {
	path, ok := option.(string)
	if !ok {
		return option
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		logger.Info(context.Background(), "could not read data option as a json file, using it as the data value",
			"data", path, "reason", err.Error())
		return path
	}

	var parsed interface{}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		logger.Info(context.Background(), "could not parse data file as json, using the path as the data value",
			"data", path, "reason", err.Error())
		return path
	}

	ledger.Record(path)
	return parsed
}
