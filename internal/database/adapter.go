package database

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/povarna/generative-ai-agents/mcp-tools/internal/models"
	"github.com/povarna/generative-ai-agents/mcp-tools/internal/querygate"
	"github.com/rs/zerolog"
)

type Adapter struct {
	gate      querygate.Gate
	connector Connector
	timeout   time.Duration
	logger    *zerolog.Logger
}

func NewAdapter(gate querygate.Gate, connector Connector, timeout time.Duration, logger *zerolog.Logger) *Adapter {
	return &Adapter{
		gate:      gate,
		connector: connector,
		timeout:   timeout,
		logger:    logger,
	}
}

// Execute classifies sql and, if allowed, runs it on a freshly acquired
// connection. The connection is released on every path, including panics
// raised by the driver, and no partial result is returned with an error.
func (a *Adapter) Execute(ctx context.Context, sql string) (result *models.ResultSet, err error) {
	if strings.TrimSpace(sql) == "" {
		return nil, models.NewError(models.KindInvalidRequest, "sql statement is empty", nil)
	}

	verdict := a.gate.Classify(sql)
	if !verdict.Allowed {
		a.logger.Warn().Str("keyword", verdict.Keyword).Msg("Statement denied by query gate")
		return nil, verdict.Err()
	}

	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	session, err := a.connector.Acquire(ctx)
	if err != nil {
		return nil, models.NewError(models.KindConnectionFailure, "failed to connect to database", err)
	}
	defer session.Release()

	defer func() {
		if r := recover(); r != nil {
			a.logger.Error().Interface("panic", r).Msg("Query panicked")
			result = nil
			err = models.NewError(models.KindExecutionFailure, fmt.Sprintf("query aborted: %v", r), nil)
		}
	}()

	start := time.Now()
	rs, err := session.Query(ctx, sql)
	if err != nil {
		return nil, models.NewError(models.KindExecutionFailure, "query failed", err)
	}
	if rs == nil {
		rs = &models.ResultSet{}
	}

	a.logger.Debug().
		Int("rows", len(rs.Rows)).
		Dur("duration", time.Since(start)).
		Msg("Query executed")

	return rs, nil
}

func (a *Adapter) Ping(ctx context.Context) error {
	return a.connector.Ping(ctx)
}
