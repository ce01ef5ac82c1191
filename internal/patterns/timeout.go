package patterns

import "time"

// DefaultTimeout bounds one outbound gateway call
const DefaultTimeout = 30 * time.Second

// DefaultBulkheadWait is how long a caller waits for a free bulkhead slot
const DefaultBulkheadWait = 1 * time.Second
