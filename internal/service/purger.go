package service

import (
	"context"

	"github.com/haierkeys/gift-share-service/internal/domain"
	"github.com/haierkeys/gift-share-service/pkg/logger"

	"go.uber.org/zap"
)

// recordPurger removes a dead record together with its media
// Blob deletion is dispatched first and never awaited; the row delete is synchronous.
// recordPurger 删除记录及其媒体，媒体删除先发出且不等待结果
type recordPurger struct {
	artifact string
	records  domain.RecordDeleter
	blobs    BlobDeletionClient
	metrics  *Metrics
	logger   *zap.Logger
}

func (p *recordPurger) purge(ctx context.Context, id int64, blobURL, reason string) error {
	if p.blobs != nil {
		p.blobs.Delete(ctx, blobURL)
	}
	if err := p.records.Delete(ctx, id); err != nil {
		p.logger.Warn("share record delete failed",
			zap.String(logger.FieldArtifact, p.artifact),
			zap.Int64(logger.FieldRecordID, id),
			zap.String("reason", reason),
			zap.Error(err))
		return err
	}
	p.metrics.shareDeleted(p.artifact, reason)
	p.logger.Debug("share record deleted",
		zap.String(logger.FieldArtifact, p.artifact),
		zap.Int64(logger.FieldRecordID, id),
		zap.String("reason", reason))
	return nil
}
