package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"contractarchive/internal/model"
)

type askRequest struct {
	Question  string `json:"question" binding:"required"`
	SessionID string `json:"session_id"`
}

func (s *Server) ask(c *gin.Context) {
	var req askRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		failWith(c, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}

	result, err := s.QA.Ask(c.Request.Context(), req.SessionID, req.Question)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, "问答成功", result.Turn)
}

type sessionListResponse struct {
	Total    int                `json:"total"`
	Page     int                `json:"page"`
	PageSize int                `json:"page_size"`
	Sessions []model.QASession  `json:"sessions"`
}

func (s *Server) listSessions(c *gin.Context) {
	page, pageSize, limit, offset := pagination(c)
	sessions, total, err := s.Store.QA.ListSessions(c.Request.Context(), limit, offset)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, "获取会话列表成功", sessionListResponse{Total: total, Page: page, PageSize: pageSize, Sessions: sessions})
}

func (s *Server) getSession(c *gin.Context) {
	sid := c.Param("sid")
	session, err := s.Store.QA.GetSession(c.Request.Context(), sid)
	if err != nil {
		fail(c, err)
		return
	}
	turns, err := s.Store.QA.ListTurns(c.Request.Context(), sid)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, "获取会话详情成功", gin.H{"session": session, "turns": turns})
}

type feedbackRequest struct {
	Feedback string `json:"feedback" binding:"required"`
}

func (s *Server) setFeedback(c *gin.Context) {
	messageID, found := pathInt64(c, "mid")
	if !found {
		failWith(c, http.StatusBadRequest, "invalid message id")
		return
	}
	var req feedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		failWith(c, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}
	feedback := model.Feedback(req.Feedback)
	if feedback != model.FeedbackHelpful && feedback != model.FeedbackNotHelpful {
		failWith(c, http.StatusBadRequest, "feedback must be helpful or not_helpful")
		return
	}

	if err := s.Store.QA.SetFeedback(c.Request.Context(), messageID, feedback); err != nil {
		fail(c, err)
		return
	}
	ok(c, "反馈已记录", nil)
}

func (s *Server) deleteSession(c *gin.Context) {
	sid := c.Param("sid")
	if err := s.Store.QA.DeleteSession(c.Request.Context(), sid); err != nil {
		fail(c, err)
		return
	}
	ok(c, "会话已删除", nil)
}
