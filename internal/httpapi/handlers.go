package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"stagegate/internal/domain/project"
)

type registerUserRequest struct {
	Name  string `json:"name" binding:"required"`
	Email string `json:"email" binding:"required"`
}

type launchRequest struct {
	Members []project.MemberInput `json:"members"`
}

type assignTasksRequest struct {
	Email string              `json:"email" binding:"required"`
	Tasks []project.TaskInput `json:"tasks" binding:"required"`
}

type submitProofRequest struct {
	TaskID      string `json:"task_id" binding:"required"`
	Description string `json:"description"`
	ProofRef    string `json:"proof_ref"`
}

type resolveRequestBody struct {
	TaskID      string `json:"task_id"`
	MemberEmail string `json:"member_email"`
	Decision    string `json:"decision" binding:"required,oneof=approve reject"`
}

type submitReportRequest struct {
	ProofRef string `json:"proof_ref" binding:"required"`
}

func (s *Server) registerUser(c *gin.Context) {
	var req registerUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input"})
		return
	}

	user, err := s.users.Register(c.Request.Context(), req.Name, req.Email)
	if err != nil {
		s.fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, user)
}

func (s *Server) listProjects(c *gin.Context) {
	email, ok := actor(c)
	if !ok {
		return
	}

	projects, err := s.projects.ListForMember(c.Request.Context(), email)
	if err != nil {
		s.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"items": projects})
}

func (s *Server) createProject(c *gin.Context) {
	email, ok := actor(c)
	if !ok {
		return
	}

	var req project.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input"})
		return
	}

	proj, err := s.projects.Create(c.Request.Context(), email, req)
	if err != nil {
		s.fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, proj)
}

func (s *Server) getProject(c *gin.Context) {
	proj, err := s.projects.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, proj)
}

func (s *Server) launchProject(c *gin.Context) {
	var req launchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input"})
		return
	}

	proj, err := s.projects.Launch(c.Request.Context(), c.Param("id"), req.Members)
	if err != nil {
		s.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, proj)
}

func (s *Server) assignTasks(c *gin.Context) {
	var req assignTasksRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input"})
		return
	}

	proj, err := s.projects.AssignTasks(c.Request.Context(), c.Param("id"), req.Email, req.Tasks)
	if err != nil {
		s.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, proj)
}

func (s *Server) submitTaskProof(c *gin.Context) {
	email, ok := actor(c)
	if !ok {
		return
	}

	var req submitProofRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input"})
		return
	}

	proj, err := s.projects.SubmitTaskProof(c.Request.Context(), c.Param("id"), email, req.TaskID, req.Description, req.ProofRef)
	if err != nil {
		s.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, proj)
}

func (s *Server) pendingRequests(c *gin.Context) {
	pending, err := s.projects.PendingRequests(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"items": pending})
}

func (s *Server) resolveRequest(c *gin.Context) {
	email, ok := actor(c)
	if !ok {
		return
	}

	var req resolveRequestBody
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input"})
		return
	}

	sel := project.RequestSelector{TaskID: req.TaskID, AuthorEmail: req.MemberEmail}
	proj, err := s.projects.ResolveRequest(c.Request.Context(), c.Param("id"), email, sel, project.Decision(req.Decision))
	if err != nil {
		s.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, proj)
}

func (s *Server) submitFinalReport(c *gin.Context) {
	email, ok := actor(c)
	if !ok {
		return
	}

	var req submitReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input"})
		return
	}

	proj, err := s.projects.SubmitFinalReport(c.Request.Context(), c.Param("id"), email, req.ProofRef)
	if err != nil {
		s.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, proj)
}

func (s *Server) pendingFinalApprovals(c *gin.Context) {
	approvals, err := s.projects.PendingFinalApprovals(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"items": approvals, "count": len(approvals)})
}

func (s *Server) approveFinalProject(c *gin.Context) {
	email, ok := actor(c)
	if !ok {
		return
	}

	proj, err := s.projects.ApproveFinalProject(c.Request.Context(), c.Param("id"), email)
	if err != nil {
		s.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, proj)
}

func (s *Server) fail(c *gin.Context, err error) {
	code, msg := statusFor(err)
	if code == http.StatusInternalServerError && s.logger != nil {
		s.logger.Error("request failed", "path", c.FullPath(), "error", err)
	}
	c.JSON(code, gin.H{"error": msg})
}
