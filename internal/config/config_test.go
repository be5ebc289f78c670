package config

import "testing"

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	cfg := Load()

	if cfg.ChunkSize != 1000 {
		t.Errorf("ChunkSize default = %d, want 1000", cfg.ChunkSize)
	}
	if cfg.ChunkOverlap != 200 {
		t.Errorf("ChunkOverlap default = %d, want 200", cfg.ChunkOverlap)
	}
	if cfg.OCRWorkerPoolSize != 5 {
		t.Errorf("OCRWorkerPoolSize default = %d, want 5", cfg.OCRWorkerPoolSize)
	}
	if cfg.VectorDim != 1024 {
		t.Errorf("VectorDim default = %d, want 1024", cfg.VectorDim)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("CHUNK_SIZE", "500")
	t.Setenv("CHUNK_OVERLAP", "50")

	cfg := Load()

	if cfg.ChunkSize != 500 {
		t.Errorf("ChunkSize = %d, want 500", cfg.ChunkSize)
	}
	if cfg.ChunkOverlap != 50 {
		t.Errorf("ChunkOverlap = %d, want 50", cfg.ChunkOverlap)
	}
}
