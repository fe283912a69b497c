package api

import (
	"fmt"
	"net/http"
	"path/filepath"
	"strconv"

	"github.com/gin-gonic/gin"

	"storycut/store"
	"storycut/storyboard"
)

// ---- projects ----

type createProjectRequest struct {
	Title   string `json:"title" binding:"required"`
	Logline string `json:"logline"`
	Style   string `json:"style"`
}

func (s *Server) createProject(c *gin.Context) {
	var req createProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.fail(c, http.StatusBadRequest, err)
		return
	}
	p, err := s.studio.Store.CreateProject(req.Title, req.Logline, req.Style)
	if err != nil {
		s.fail(c, http.StatusInternalServerError, err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

func (s *Server) listProjects(c *gin.Context) {
	projects, err := s.studio.Store.ListProjects()
	if err != nil {
		s.fail(c, http.StatusInternalServerError, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"projects": projects})
}

func (s *Server) getProject(c *gin.Context) {
	p, err := s.studio.Store.GetProject(c.Param("id"))
	if err != nil {
		s.fail(c, http.StatusInternalServerError, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (s *Server) deleteProject(c *gin.Context) {
	if err := s.studio.Store.DeleteProject(c.Param("id")); err != nil {
		s.fail(c, http.StatusInternalServerError, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ---- script / project-level tasks ----

type importScriptRequest struct {
	Text string `json:"text" binding:"required"`
}

func (s *Server) importScript(c *gin.Context) {
	var req importScriptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.fail(c, http.StatusBadRequest, err)
		return
	}
	scenes, err := s.studio.ImportScript(c.Param("id"), req.Text)
	if err != nil {
		s.fail(c, http.StatusBadRequest, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"scenes": scenes})
}

func (s *Server) planProject(c *gin.Context) {
	s.submitTask(c, func() (*store.Task, error) { return s.studio.PlanProject(c.Param("id")) })
}

func (s *Server) narrateProject(c *gin.Context) {
	s.submitTask(c, func() (*store.Task, error) { return s.studio.NarrateProject(c.Param("id")) })
}

func (s *Server) exportProject(c *gin.Context) {
	s.submitTask(c, func() (*store.Task, error) { return s.studio.ExportProject(c.Param("id")) })
}

// submitTask runs a task-submitting operation and answers 202 with the task.
func (s *Server) submitTask(c *gin.Context, submit func() (*store.Task, error)) {
	t, err := submit()
	if err != nil {
		s.fail(c, http.StatusBadRequest, err)
		return
	}
	c.JSON(http.StatusAccepted, t)
}

// ---- scenes ----

func (s *Server) listScenes(c *gin.Context) {
	scenes, err := s.studio.Store.ListScenes(c.Param("id"))
	if err != nil {
		s.fail(c, http.StatusInternalServerError, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"scenes": scenes})
}

func (s *Server) getScene(c *gin.Context) {
	scene, err := s.studio.Store.GetScene(c.Param("id"))
	if err != nil {
		s.fail(c, http.StatusInternalServerError, err)
		return
	}
	c.JSON(http.StatusOK, scene)
}

type updateSceneRequest struct {
	Heading *string `json:"heading"`
	Summary *string `json:"summary"`
	Prompt  *string `json:"prompt"`
}

func (s *Server) updateScene(c *gin.Context) {
	scene, err := s.studio.Store.GetScene(c.Param("id"))
	if err != nil {
		s.fail(c, http.StatusInternalServerError, err)
		return
	}
	var req updateSceneRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.fail(c, http.StatusBadRequest, err)
		return
	}
	if req.Heading != nil {
		scene.Heading = *req.Heading
	}
	if req.Summary != nil {
		scene.Summary = *req.Summary
	}
	if req.Prompt != nil {
		scene.Prompt = *req.Prompt
	}
	if err := s.studio.Store.UpdateScene(scene); err != nil {
		s.fail(c, http.StatusInternalServerError, err)
		return
	}
	c.JSON(http.StatusOK, scene)
}

func (s *Server) generateScene(c *gin.Context) {
	s.submitTask(c, func() (*store.Task, error) { return s.studio.GenerateSceneBatch(c.Param("id")) })
}

// uploadStoryboard accepts a multipart contact sheet, splits it on the grid
// and creates one shot per panel with its image already attached.
func (s *Server) uploadStoryboard(c *gin.Context) {
	scene, err := s.studio.Store.GetScene(c.Param("id"))
	if err != nil {
		s.fail(c, http.StatusInternalServerError, err)
		return
	}

	grid := s.defaultGrid
	if v := c.PostForm("rows"); v != "" {
		if grid.Rows, err = strconv.Atoi(v); err != nil {
			s.fail(c, http.StatusBadRequest, fmt.Errorf("bad rows: %w", err))
			return
		}
	}
	if v := c.PostForm("cols"); v != "" {
		if grid.Cols, err = strconv.Atoi(v); err != nil {
			s.fail(c, http.StatusBadRequest, fmt.Errorf("bad cols: %w", err))
			return
		}
	}

	fh, err := c.FormFile("sheet")
	if err != nil {
		s.fail(c, http.StatusBadRequest, fmt.Errorf("missing sheet file: %w", err))
		return
	}
	sheetPath := filepath.Join(s.studio.AssetsDir, "sheet_"+scene.ID+filepath.Ext(fh.Filename))
	if err := c.SaveUploadedFile(fh, sheetPath); err != nil {
		s.fail(c, http.StatusInternalServerError, err)
		return
	}

	panels, err := storyboard.SplitFile(sheetPath, s.studio.AssetsDir, grid)
	if err != nil {
		s.fail(c, http.StatusBadRequest, err)
		return
	}

	shots := make([]store.Shot, len(panels))
	for i, panel := range panels {
		shots[i] = store.Shot{Size: "MEDIUM", ImagePath: panel}
	}
	created, err := s.studio.Store.CreateShots(scene.ID, scene.ProjectID, shots)
	if err != nil {
		s.fail(c, http.StatusInternalServerError, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"shots": created})
}

// ---- shots ----

func (s *Server) getShot(c *gin.Context) {
	shot, err := s.studio.Store.GetShot(c.Param("id"))
	if err != nil {
		s.fail(c, http.StatusInternalServerError, err)
		return
	}
	c.JSON(http.StatusOK, shot)
}

type updateShotRequest struct {
	Size        *string  `json:"size"`
	Movement    *string  `json:"movement"`
	ImagePrompt *string  `json:"image_prompt"`
	VideoPrompt *string  `json:"video_prompt"`
	Narration   *string  `json:"narration"`
	DurationSec *float64 `json:"duration_sec"`
}

// updateShot edits a shot's plan. Any generation still running for the shot
// is canceled first so a stale result cannot land on the new plan.
func (s *Server) updateShot(c *gin.Context) {
	shot, err := s.studio.Store.GetShot(c.Param("id"))
	if err != nil {
		s.fail(c, http.StatusInternalServerError, err)
		return
	}
	var req updateShotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.fail(c, http.StatusBadRequest, err)
		return
	}

	s.studio.Engine.CancelForShot(shot.ID)

	if req.Size != nil {
		shot.Size = *req.Size
	}
	if req.Movement != nil {
		shot.Movement = *req.Movement
	}
	if req.ImagePrompt != nil {
		shot.ImagePrompt = *req.ImagePrompt
	}
	if req.VideoPrompt != nil {
		shot.VideoPrompt = *req.VideoPrompt
	}
	if req.Narration != nil {
		shot.Narration = *req.Narration
	}
	if req.DurationSec != nil {
		shot.DurationSec = *req.DurationSec
	}
	if err := s.studio.Store.UpdateShot(shot); err != nil {
		s.fail(c, http.StatusInternalServerError, err)
		return
	}
	c.JSON(http.StatusOK, shot)
}

func (s *Server) deleteShot(c *gin.Context) {
	id := c.Param("id")
	s.studio.Engine.CancelForShot(id)
	if err := s.studio.Store.DeleteShot(id); err != nil {
		s.fail(c, http.StatusInternalServerError, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) listShots(c *gin.Context) {
	shots, err := s.studio.Store.ListShotsByScene(c.Param("id"))
	if err != nil {
		s.fail(c, http.StatusInternalServerError, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"shots": shots})
}

func (s *Server) generateShotImage(c *gin.Context) {
	s.submitTask(c, func() (*store.Task, error) { return s.studio.GenerateShotImage(c.Param("id")) })
}

func (s *Server) generateShotVideo(c *gin.Context) {
	s.submitTask(c, func() (*store.Task, error) { return s.studio.GenerateShotVideo(c.Param("id")) })
}

// ---- characters ----

func (s *Server) listCharacters(c *gin.Context) {
	chars, err := s.studio.Store.ListCharacters(c.Param("id"))
	if err != nil {
		s.fail(c, http.StatusInternalServerError, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"characters": chars})
}

type createCharacterRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	PromptFrag  string `json:"prompt_fragment"`
}

func (s *Server) createCharacter(c *gin.Context) {
	var req createCharacterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.fail(c, http.StatusBadRequest, err)
		return
	}
	character := &store.Character{
		ProjectID:   c.Param("id"),
		Name:        req.Name,
		Description: req.Description,
		PromptFrag:  req.PromptFrag,
	}
	if err := s.studio.Store.CreateCharacter(character); err != nil {
		s.fail(c, http.StatusInternalServerError, err)
		return
	}
	c.JSON(http.StatusCreated, character)
}

func (s *Server) generateSheet(c *gin.Context) {
	s.submitTask(c, func() (*store.Task, error) { return s.studio.GenerateCharacterSheet(c.Param("id")) })
}

// ---- tasks ----

func (s *Server) getTask(c *gin.Context) {
	t, err := s.studio.Store.GetTask(c.Param("id"))
	if err != nil {
		s.fail(c, http.StatusInternalServerError, err)
		return
	}
	c.JSON(http.StatusOK, t)
}

// cancelTask flips an active task to canceled. Answers 200 with the current
// record whether or not the task was still running (idempotent cancel).
func (s *Server) cancelTask(c *gin.Context) {
	id := c.Param("id")
	t, err := s.studio.Store.GetTask(id)
	if err != nil {
		s.fail(c, http.StatusInternalServerError, err)
		return
	}
	if !t.Status.Terminal() {
		s.studio.Engine.Cancel(id)
	}
	t, err = s.studio.Store.GetTask(id)
	if err != nil {
		s.fail(c, http.StatusInternalServerError, err)
		return
	}
	c.JSON(http.StatusOK, t)
}
