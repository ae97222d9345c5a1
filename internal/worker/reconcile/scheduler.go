// Package reconcile はプロファイル整合のバックグラウンド実行を提供する。
// 一定間隔でプロファイルを持たないアカウントを走査し、不足分を補う。
package reconcile

import (
	"context"
	"log/slog"
	"time"
)

// ReconcilerService はプロファイル整合の実行インターフェース。
type ReconcilerService interface {
	// ReconcileAll はプロファイルを持たない全アカウントを走査し、作成した数を返す。
	ReconcileAll(ctx context.Context) (int, error)
}

// Scheduler はプロファイル整合の定期実行を行う。
// DBトリガーとリスナーが取りこぼした行を拾うためのフォールバック経路であり、
// 整合処理自体が冪等なため多重実行しても安全。
type Scheduler struct {
	reconciler ReconcilerService
	logger     *slog.Logger
}

// NewScheduler はSchedulerの新しいインスタンスを生成する。
func NewScheduler(reconciler ReconcilerService, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		reconciler: reconciler,
		logger:     logger,
	}
}

// Start は指定間隔のティッカーでスケジューラを起動する。
// コンテキストがキャンセルされるまで実行を継続する。
func (s *Scheduler) Start(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.logger.Info("整合スケジューラを開始しました",
		slog.Duration("interval", interval),
	)

	// 起動直後に1回実行
	if err := s.RunOnce(ctx); err != nil {
		s.logger.Error("整合サイクルの実行に失敗しました",
			slog.String("error", err.Error()),
		)
	}

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("整合スケジューラを停止しました")
			return
		case <-ticker.C:
			if err := s.RunOnce(ctx); err != nil {
				s.logger.Error("整合サイクルの実行に失敗しました",
					slog.String("error", err.Error()),
				)
			}
		}
	}
}

// RunOnce は整合処理を1回実行する。
func (s *Scheduler) RunOnce(ctx context.Context) error {
	start := time.Now()

	created, err := s.reconciler.ReconcileAll(ctx)
	if err != nil {
		return err
	}

	duration := time.Since(start)
	s.logger.Info("整合サイクルが完了しました",
		slog.Int("created", created),
		slog.Float64("duration_ms", float64(duration.Milliseconds())),
	)

	return nil
}
