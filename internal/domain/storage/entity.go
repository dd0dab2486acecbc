package storage

// Status summarises both stores for the maintenance screen.
type Status struct {
	RemoteFirst       bool    `json:"remote_first" yaml:"remote_first"`
	RemoteReachable   bool    `json:"remote_reachable" yaml:"remote_reachable"`
	RemoteError       *string `json:"remote_error,omitempty" yaml:"remote_error,omitempty"`
	CachedItems       int     `json:"cached_items" yaml:"cached_items"`
	CachedUsers       int     `json:"cached_users" yaml:"cached_users"`
	CachedRelations   int     `json:"cached_relations" yaml:"cached_relations"`
	CachedAttendance  int     `json:"cached_attendance" yaml:"cached_attendance"`
	QueuedSyncEntries int     `json:"queued_sync_entries" yaml:"queued_sync_entries"`
	ActiveUserID      *string `json:"active_user_id,omitempty" yaml:"active_user_id,omitempty"`
	ActiveUserIsLocal bool    `json:"active_user_is_local" yaml:"active_user_is_local"`
}
