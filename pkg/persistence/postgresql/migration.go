package postgresql

// Flows and runs are written by the run-registration path, which may already
// own these tables, so their creation is idempotent.
func migrations() map[int]string {
	return map[int]string{
		1: `
			CREATE TABLE IF NOT EXISTS flows (
				flow_id VARCHAR(255) PRIMARY KEY,
				user_name VARCHAR(255),
				ts_epoch BIGINT NOT NULL
			);

			CREATE TABLE IF NOT EXISTS runs (
				flow_id VARCHAR(255) NOT NULL REFERENCES flows(flow_id),
				run_number BIGINT NOT NULL,
				user_name VARCHAR(255),
				ts_epoch BIGINT NOT NULL,
				PRIMARY KEY (flow_id, run_number)
			);

			CREATE INDEX IF NOT EXISTS idx_runs_ts_epoch ON runs(ts_epoch);
		`,
		2: `
			-- Rich run outcome records, one per run
			CREATE TABLE rich_runs (
				flow_id VARCHAR(255) NOT NULL,
				run_number BIGINT NOT NULL,
				success BOOLEAN,
				finished BOOLEAN NOT NULL DEFAULT FALSE,
				finished_at BIGINT,
				execution_length BIGINT,
				ts_epoch BIGINT NOT NULL,
				PRIMARY KEY (flow_id, run_number),
				FOREIGN KEY (flow_id, run_number) REFERENCES runs(flow_id, run_number)
			);

			CREATE INDEX idx_rich_runs_flow_ts_epoch ON rich_runs(flow_id, ts_epoch);
		`,
	}
}
