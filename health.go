// Copyright (c) Homewatch
// SPDX-License-Identifier: Apache-2.0

package homewatch

import (
	"encoding/json"
	"net/http"
)

const (
	version     = "0.3.0"
	contentType = "application/health+json"
	svcStatus   = "pass"
	description = " service"
)

// HealthInfo contains health check response.
type HealthInfo struct {
	// Status contains service status.
	Status string `json:"status"`

	// Version contains current service version.
	Version string `json:"version"`

	// Description contains service description.
	Description string `json:"description"`

	// InstanceID contains the ID of the service instance.
	InstanceID string `json:"instance_id"`
}

// Health exposes an HTTP handler for retrieving service health.
func Health(service, instanceID string) http.HandlerFunc {
	return func(rw http.ResponseWriter, _ *http.Request) {
		res := HealthInfo{
			Status:      svcStatus,
			Version:     version,
			Description: service + description,
			InstanceID:  instanceID,
		}

		rw.Header().Set("Content-Type", contentType)
		if err := json.NewEncoder(rw).Encode(res); err != nil {
			rw.WriteHeader(http.StatusInternalServerError)
		}
	}
}
