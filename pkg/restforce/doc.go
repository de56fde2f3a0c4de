// Package restforce provides a client for a Salesforce-style record API.
// The Client maps verb-like intents (Create, Update, Upsert, Destroy, Find,
// Query, Search, Describe) onto the versioned REST surface, so callers never
// assemble resource paths or payloads by hand. Every mutating operation has
// a lenient Try* companion that folds remote rejections into a boolean while
// letting every other failure propagate. Raw HTTP verbs remain available as
// an escape hatch, and NewWithDispatcher accepts a custom backend such as
// the in-memory org in pkg/restforce/mock.
package restforce
