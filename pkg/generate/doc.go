// Package generate defines the Generator collaborator interface the
// AgentPipeline drives for code synthesis, plus a gRPC adapter to an
// out-of-process generator sidecar.
package generate
