package app

import (
	"bytes"
	"testing"
)

// TestRun_WorkerCommand_OpensDBConnection はworkerコマンドがDB接続を試みることを検証する。
// テスト環境ではDB接続が失敗するため、エラーが返ることを許容する。
func TestRun_WorkerCommand_OpensDBConnection(t *testing.T) {
	setTestEnv(t)

	var buf bytes.Buffer
	err := Run(&buf, []string{"worker"})
	if err == nil {
		// CI/ローカルにDBがある場合はここに到達する可能性がある。
		t.Log("Run(worker) succeeded - DB is available in test environment")
	}
}

// TestRun_MigrateCommand はmigrateコマンドがDB接続を試みることを検証する。
func TestRun_MigrateCommand_RequiresDB(t *testing.T) {
	setTestEnv(t)

	var buf bytes.Buffer
	err := Run(&buf, []string{"migrate"})
	if err == nil {
		t.Log("Run(migrate) succeeded - DB is available in test environment")
	}
}

func TestRun_WithMissingEnv_ReturnsError(t *testing.T) {
	clearTestEnv(t)

	var buf bytes.Buffer
	err := Run(&buf, []string{"serve"})
	if err == nil {
		t.Fatal("Run with missing env should return error")
	}
}

// healthcheckサブコマンドはフル初期化をスキップするため、
// 必須環境変数が無くても起動まで到達する（接続自体は失敗する）。
func TestRun_Healthcheck_SkipsFullInit(t *testing.T) {
	clearTestEnv(t)
	t.Setenv("SERVER_PORT", "1") // 接続不可能なポート

	var buf bytes.Buffer
	err := Run(&buf, []string{"healthcheck"})
	if err == nil {
		t.Fatal("healthcheck against a dead port should fail")
	}
}
