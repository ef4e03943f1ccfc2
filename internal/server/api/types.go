package api

// Error is the error half of the envelope. Code is stable for clients to
// branch on; Message is safe to show to a user.
type Error struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"` // per-field problems, keyed by JSON field name
}

// Response is the envelope every fixstl JSON endpoint answers with:
// {"ok": true, "data": ...} or {"ok": false, "error": {...}}.
// read_raw_file answers raw bytes on success and uses it only for errors.
type Response struct {
	OK    bool   `json:"ok"`
	Data  any    `json:"data,omitempty"`
	Error *Error `json:"error,omitempty"`
}
