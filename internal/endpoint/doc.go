// Package endpoint manages remote push targets: the URLs and credentials
// a pipeline delivers ingested data to. Endpoints are owned per operator
// account and, unlike devices, carry server-assigned identifiers and no
// cross-pipeline exclusivity — several pipelines may push to the same
// endpoint.
package endpoint
