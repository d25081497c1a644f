// Package items stores named configuration items: tool and provider
// definitions for the authoring UI and per-item token overrides consulted by
// the relay through the "_path" request parameter.
//
// An item lives at "<kind>/<name>", for example "tools/summarize". Its
// details are free-form JSON. Keys starting with "_" or "." are never listed;
// keys flagged with an "@encrypt" twin are encrypted before they are stored.
//
// Three backends implement Store: memory, SQLite (modernc.org/sqlite or
// mattn/go-sqlite3) and Redis. SQLite and Redis also implement Maintainer,
// driven by Scheduler on items.maintenance_schedule.
package items
