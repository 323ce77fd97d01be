package statefile

import (
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// stateSchema guards the on-disk document. It is deliberately strict about
// structure and permissive about payload contents, which vary per action.
const stateSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["turn", "building", "infected_coords", "last_action"],
  "properties": {
    "turn": {"type": "integer", "minimum": 0},
    "building": {
      "type": "object",
      "required": ["floors_count", "rooms_per_floor", "floors"],
      "properties": {
        "floors_count": {"type": "integer", "minimum": 1},
        "rooms_per_floor": {"type": "integer", "minimum": 1},
        "floors": {
          "type": "object",
          "patternProperties": {
            "^[0-9]+$": {
              "type": "object",
              "required": ["floor_number", "rooms"],
              "properties": {
                "floor_number": {"type": "integer", "minimum": 0},
                "rooms": {
                  "type": "object",
                  "patternProperties": {
                    "^[0-9]+$": {
                      "type": "object",
                      "required": ["room_number", "blocked", "sensor"],
                      "properties": {
                        "room_number": {"type": "integer", "minimum": 0},
                        "blocked": {"type": "boolean"},
                        "sensor": {
                          "type": "object",
                          "required": ["status"],
                          "properties": {
                            "status": {"enum": ["normal", "alert"]}
                          }
                        }
                      }
                    }
                  },
                  "additionalProperties": false
                }
              }
            }
          },
          "additionalProperties": false
        }
      }
    },
    "infected_coords": {
      "type": "object",
      "patternProperties": {
        "^[0-9]+,[0-9]+$": {
          "type": "object",
          "required": ["zombie_count"],
          "properties": {
            "zombie_count": {"type": "integer", "minimum": 0}
          }
        }
      },
      "additionalProperties": false
    },
    "last_action": {"type": "string"},
    "last_action_payload": {"type": "object"},
    "infection_events_log": {
      "type": "array",
      "items": {
        "type": "array",
        "items": {
          "type": "object",
          "required": ["floor", "room", "zombie_count_delta"],
          "properties": {
            "floor": {"type": "integer", "minimum": 0},
            "room": {"type": "integer", "minimum": 0},
            "zombie_count_delta": {"type": "integer"}
          }
        }
      }
    }
  }
}`

var compiledStateSchema = jsonschema.MustCompileString(stateFileName, stateSchema)

func validateDocument(data []byte) error {
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("statefile: %w", err)
	}
	if err := compiledStateSchema.Validate(doc); err != nil {
		return fmt.Errorf("statefile: document invalid: %w", err)
	}
	return nil
}
