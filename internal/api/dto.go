package api

import "github.com/samcharles93/loom/internal/manifest"

type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	Uptime  string `json:"uptime"`
	Models  int    `json:"models"`
}

type ModelList struct {
	Object string         `json:"object"`
	Data   []ModelSummary `json:"data"`
}

type ModelSummary struct {
	ID        string `json:"id"`
	Object    string `json:"object"`
	Device    string `json:"device"`
	Inputs    int    `json:"inputs"`
	Outputs   int    `json:"outputs"`
	Constants int    `json:"constants"`
	Loaded    bool   `json:"loaded"`
	LoadedAt  int64  `json:"loaded_at"`
}

type ModelDetail struct {
	ModelSummary
	InSpec   string             `json:"in_spec,omitempty"`
	OutSpec  string             `json:"out_spec,omitempty"`
	Manifest *manifest.Manifest `json:"manifest,omitempty"`
}

type StatusResponse struct {
	State string `json:"state"`
	Error string `json:"error,omitempty"`
}

type ResponseError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Code    string `json:"code,omitempty"`
}
