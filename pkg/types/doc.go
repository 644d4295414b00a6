// Package types defines the Thought and AreaOfLife entities, the repository
// and ID allocator interfaces the storage engine implements, the standard
// errors, and the storage configuration.
package types
