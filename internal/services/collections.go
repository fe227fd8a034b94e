package services

import "github.com/google/uuid"

// MaxCollectionNameLen is the longest identifier the vector store accepts.
const MaxCollectionNameLen = 63

const courseCollectionPrefix = "course-"

// CollectionName is the per-course vector collection. Pure and deterministic.
func CollectionName(courseID uuid.UUID) string {
	return truncateName(courseCollectionPrefix + courseID.String())
}

// KnowledgeCollectionName is the collection backing a knowledge base.
func KnowledgeCollectionName(knowledgeID string) string {
	return truncateName(knowledgeID)
}

func truncateName(name string) string {
	if len(name) > MaxCollectionNameLen {
		return name[:MaxCollectionNameLen]
	}
	return name
}
