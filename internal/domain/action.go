package domain

import "context"

// Action is the external side effect invoked with the winning command, at
// most once per cycle. The command is lower-case and a member of the
// configured CommandSet. A failing Action is reported and the cycle
// continues; a hanging Action stalls subsequent cycles, since the cycle
// awaits it without a timeout.
type Action func(ctx context.Context, command string) error
