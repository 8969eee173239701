// Package core provides the business logic for spreadsheet page imports.
//
// A dataset is a typed container (a Go struct) whose fields are filled from
// the pages of a published spreadsheet document. Each page is a CSV table:
// the first line names the columns, every other line is one record. The
// package is independent of any transport layer and is used by the web
// handlers, the command line and the tests alike.
//
// # Architecture
//
//   - Tokenizer: [SplitLines] and [SplitLine] cut page text into cells.
//   - Table: [ReadTable] extracts headers, the id column and data rows.
//   - Schema: a [Schema] is a compile-time table of named, typed field
//     setters for one element type. Nested structs join with [Nest].
//   - Binding: [Bind] resolves header names against a schema.
//   - Assembly: [AssembleCollection] and [AssembleSingle] turn rows into
//     elements.
//   - Importer: an [Importer] walks the container's targets in order,
//     downloads each page through a [Fetcher] and reports [Progress].
//   - Service: the [Service] starts runs of registered datasets and fans
//     their progress out to subscribers.
//
// # Dataset Registry
//
// Datasets are registered at init time using [Register]:
//
//	core.Register(core.Definition[Game]{
//	    Key:   "game",
//	    Label: "Game data",
//	    Targets: []core.Target[Game]{
//	        core.CollectionTarget("Items", "Items", itemSchema,
//	            func(g *Game) *[]Item { return &g.Items }),
//	        core.SingleTarget("Config", "Config", configSchema,
//	            func(g *Game) *Config { return &g.Config }),
//	    },
//	})
//
// # Import Flow
//
//  1. Client calls [Service.StartImport] with a dataset key and document ID
//  2. Each target's page is downloaded, read, bound and assembled
//  3. Progress is broadcast to subscribers via [Service.SubscribeProgress]
//  4. The populated container is available from [Service.GetImportResult]
//
// Only a failed download stops a run early. Unknown headers, bad cells and
// empty pages are logged and skipped.
package core
