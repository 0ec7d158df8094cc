package netbox

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"path"
	"strings"

	"netbox-sync/core/reconcile"
	"netbox-sync/core/storage"
	"netbox-sync/feature/netbox/models"

	"github.com/minio/minio-go/v7"
)

const reportTimeLayout = "20060102T150405Z"

// ReadObservations decodes a JSON array of observations.
func ReadObservations(r io.Reader) ([]models.Observation, error) {
	var observations []models.Observation
	if err := json.NewDecoder(r).Decode(&observations); err != nil {
		return nil, fmt.Errorf("failed to decode observations: %w", err)
	}
	for i, obs := range observations {
		if obs.NetboxID <= 0 {
			return nil, fmt.Errorf("observation %d: invalid netbox_id %d", i, obs.NetboxID)
		}
	}
	return observations, nil
}

// LoadObservations reads every .json object under prefix in key order.
func LoadObservations(ctx context.Context, client storage.Client, bucket, prefix string) ([]models.Observation, error) {
	var observations []models.Observation

	for obj := range client.ListObjects(ctx, bucket, minio.ListObjectsOptions{Prefix: prefix, Recursive: true}) {
		if obj.Err != nil {
			return nil, fmt.Errorf("failed to list observations: %w", obj.Err)
		}
		if !strings.HasSuffix(obj.Key, ".json") {
			continue
		}

		batch, err := readObject(ctx, client, bucket, obj.Key)
		if err != nil {
			return nil, err
		}
		observations = append(observations, batch...)
	}

	return observations, nil
}

func readObject(ctx context.Context, client storage.Client, bucket, key string) ([]models.Observation, error) {
	reader, err := client.GetObject(ctx, bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to get %s: %w", key, err)
	}
	defer reader.Close()

	batch, err := ReadObservations(reader)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", key, err)
	}
	return batch, nil
}

// PublishReport writes report as JSON under prefix and returns the object name.
func PublishReport(ctx context.Context, client storage.Client, bucket, prefix string, report *reconcile.Report) (string, error) {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode report: %w", err)
	}

	name := path.Join(prefix, fmt.Sprintf("run-%s.json", report.StartedAt.UTC().Format(reportTimeLayout)))
	_, err = client.PutObject(ctx, bucket, name, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: "application/json",
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload report %s: %w", name, err)
	}
	return name, nil
}
