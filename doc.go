// Package modelout retrieves and safely unpacks the output bundles
// (model.tar.gz archives) that managed training jobs write to object
// storage, or to a local directory when running against the local-mode
// simulator.
//
// Extraction validates every archive entry before writing anything, so a
// bundle containing a path-traversal entry name or a hostile symlink target
// is rejected whole.
//
// # Basic Usage
//
// Create a client and fetch a finished job's output:
//
//	client, err := modelout.NewClient()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// Download and extract a remote bundle
//	err = client.Fetch(ctx, "s3://bucket/jobs/tf-123/output/model.tar.gz", "./out")
//
//	// Extract a local-mode bundle
//	err = client.Fetch(ctx, "file:///tmp/output/model.tar.gz", "./out")
//
//	// Read per-worker rank manifests from the extracted output
//	ranks, err := modelout.ReadRanks("./out")
//
// # Safety Limits
//
// Extraction limits guard against decompression bombs:
//
//	client.Fetch(ctx, url, dir, modelout.WithExtractLimits(modelout.ExtractLimits{
//	    MaxFiles:     10_000,
//	    MaxTotalSize: 10 << 30,
//	}))
package modelout
