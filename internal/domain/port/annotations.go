package port

import (
	"github.com/TheMerjin/gloss2posefull/internal/domain/entity"
)

type AnnotationSource interface {
	Load(path string) ([]entity.AnnotationRecord, error)
}
