// Package ports defines the interfaces between the application layer and
// the adapters. Adapters implement these; the application and API layers
// depend only on the interfaces.
package ports
