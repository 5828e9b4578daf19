package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// listConversations returns a session's conversations, most recently
// updated first.
func (s *Server) listConversations(c *gin.Context) {
	sessionID := c.Param("session_id")
	list, err := s.conversations.ListBySession(c.Request.Context(), sessionID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list conversations"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"conversations": list})
}

// getConversation returns one conversation by thread id.
func (s *Server) getConversation(c *gin.Context) {
	threadID := c.Param("thread_id")
	conv, err := s.conversations.Get(c.Request.Context(), threadID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get conversation"})
		return
	}
	if conv == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "conversation not found"})
		return
	}
	c.JSON(http.StatusOK, conv)
}

// deleteConversation removes a conversation. Deleting an unknown
// thread id succeeds; the operation is idempotent.
func (s *Server) deleteConversation(c *gin.Context) {
	threadID := c.Param("thread_id")
	if err := s.conversations.Delete(c.Request.Context(), threadID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete conversation"})
		return
	}
	c.Status(http.StatusNoContent)
}
