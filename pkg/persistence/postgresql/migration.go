package postgresql

func migrations() map[int]string {
	return map[int]string{
		1: `
			CREATE TABLE workflows (
				id UUID PRIMARY KEY,
				name VARCHAR(255) NOT NULL,
				description TEXT NOT NULL DEFAULT '',
				trigger_event VARCHAR(255) NOT NULL,
				is_active BOOLEAN NOT NULL DEFAULT false,
				steps JSONB NOT NULL DEFAULT '[]',
				created_at TIMESTAMP WITH TIME ZONE NOT NULL,
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL,
				deleted_at TIMESTAMP WITH TIME ZONE
			);

			CREATE INDEX idx_workflows_trigger_event ON workflows(trigger_event) WHERE is_active AND deleted_at IS NULL;
			CREATE INDEX idx_workflows_created_at ON workflows(created_at);
		`,
		2: `
			CREATE TABLE execution_logs (
				id UUID PRIMARY KEY,
				execution_id UUID NOT NULL,
				workflow_id UUID NOT NULL,
				step_id VARCHAR(255),
				status VARCHAR(20) NOT NULL CHECK (status IN ('success', 'failed', 'skipped')),
				output JSONB,
				duration_ms BIGINT NOT NULL DEFAULT 0,
				created_at TIMESTAMP WITH TIME ZONE NOT NULL
			);

			CREATE INDEX idx_execution_logs_execution_id ON execution_logs(execution_id);
			CREATE INDEX idx_execution_logs_workflow_id ON execution_logs(workflow_id, created_at);
		`,
		3: `
			CREATE TABLE users (
				id VARCHAR(255) PRIMARY KEY,
				name VARCHAR(255) NOT NULL,
				user_type VARCHAR(50) NOT NULL DEFAULT 'employee',
				timezone VARCHAR(100) NOT NULL DEFAULT 'UTC',
				active BOOLEAN NOT NULL DEFAULT true
			);

			CREATE TABLE points_ledger (
				id UUID PRIMARY KEY,
				user_id VARCHAR(255) NOT NULL,
				pointable_kind VARCHAR(50),
				pointable_id VARCHAR(255),
				points_awarded NUMERIC(12, 2) NOT NULL,
				description TEXT NOT NULL,
				status VARCHAR(20) NOT NULL CHECK (status IN ('pending', 'confirmed', 'reversed')),
				project_id VARCHAR(255),
				reverses_entry_id UUID,
				meta JSONB,
				created_at TIMESTAMP WITH TIME ZONE NOT NULL
			);

			CREATE INDEX idx_points_ledger_user_created ON points_ledger(user_id, created_at);
			CREATE INDEX idx_points_ledger_status_created ON points_ledger(status, created_at);
		`,
	}
}
