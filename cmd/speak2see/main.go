// Command speak2see is the terminal client for the processing service. It
// records audio, uploads it and tracks the resulting items through their
// processing lifecycle.
package main

import (
	"bufio"
	"context"
	"encoding/base64"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/gorilla/websocket"

	"github.com/tomtuamnuq/speak2see-go/internal/backend"
	"github.com/tomtuamnuq/speak2see-go/internal/backend/httpapi"
	"github.com/tomtuamnuq/speak2see-go/internal/backend/mockapi"
	"github.com/tomtuamnuq/speak2see-go/internal/config"
	"github.com/tomtuamnuq/speak2see-go/internal/models"
	"github.com/tomtuamnuq/speak2see-go/internal/recorder"
	"github.com/tomtuamnuq/speak2see-go/internal/registry"
	"github.com/tomtuamnuq/speak2see-go/internal/session"
)

func main() {
	log.SetFlags(0)

	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	app := newClientApp(cfg)
	ctx := context.Background()

	switch os.Args[1] {
	case "login":
		app.login(ctx, os.Args[2:])
	case "logout":
		app.logout(ctx)
	case "whoami":
		app.whoami(ctx)
	case "record":
		app.record(ctx, os.Args[2:])
	case "upload":
		app.upload(ctx, os.Args[2:])
	case "items":
		app.items(ctx)
	case "show":
		app.show(ctx, os.Args[2:])
	case "watch":
		app.watch(ctx)
	default:
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `Usage: speak2see <command> [options]

Commands:
  login <username> <password>  Authenticate against the service
  logout                       End the current session
  whoami                       Show the authenticated user profile
  record [-out file] [-upload] Record from the microphone
  upload <file.wav>            Upload a previously recorded WAV file
  items                        List all processing items
  show <id>                    Show the details of one item
  watch                        Stream processing progress updates`)
}

// clientApp wires the session manager, the chosen backend and the item
// registry together for the commands below.
type clientApp struct {
	cfg      *config.Config
	session  *session.Manager
	backend  backend.Backend
	registry *registry.Registry
}

func newClientApp(cfg *config.Config) *clientApp {
	identity := session.NewHTTPIdentity(cfg.API.IdentityEndpoint, tokenFilePath())
	mgr := session.NewManager(identity)

	// The backend is picked once here; mock and HTTP implementations are
	// drop-in substitutes for each other.
	var b backend.Backend
	if cfg.API.UseMockAPI {
		b = mockapi.New(mgr, cfg.Recording.MaxUploadBytes)
	} else {
		b = httpapi.New(cfg.API.Endpoint, mgr, cfg.Recording.MaxUploadBytes)
	}

	return &clientApp{
		cfg:      cfg,
		session:  mgr,
		backend:  b,
		registry: registry.New(b),
	}
}

func tokenFilePath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = "."
	}
	return filepath.Join(dir, "speak2see", "token")
}

// requireAuth resumes an existing session or exits with a hint to log in.
func (a *clientApp) requireAuth(ctx context.Context) {
	if !a.session.IsAuthorized(ctx) {
		log.Fatal("Not logged in. Run 'speak2see login <username> <password>' first.")
	}
}

func (a *clientApp) login(ctx context.Context, args []string) {
	if len(args) != 2 {
		log.Fatal("Usage: speak2see login <username> <password>")
	}
	if !a.session.Login(ctx, args[0], args[1]) {
		log.Fatal("Login failed.")
	}
	fmt.Println("Logged in.")
	if info := a.session.CurrentUserInfo(); info != nil {
		fmt.Printf("Signed in as %s <%s>\n", info.Username, info.Email)
	}
}

func (a *clientApp) logout(ctx context.Context) {
	a.session.Logout(ctx)
	fmt.Println("Logged out.")
}

func (a *clientApp) whoami(ctx context.Context) {
	a.requireAuth(ctx)
	info := a.session.FetchUserInfo(ctx)
	if info == nil {
		fmt.Println("No profile information available.")
		return
	}
	fmt.Printf("%s <%s>\n", info.Username, info.Email)
}

func (a *clientApp) record(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("record", flag.ExitOnError)
	out := fs.String("out", "", "write the recorded WAV to this file")
	doUpload := fs.Bool("upload", false, "upload the recording when done")
	fs.Parse(args)

	a.requireAuth(ctx)

	device := recorder.NewExecDevice(a.cfg.Recording.CaptureCommand)
	ctl := recorder.New(device, a.backend, a.cfg.Recording.MaxSeconds)

	if err := ctl.StartRecording(ctx); err != nil {
		log.Fatalf("Could not start recording: %v", err)
	}
	fmt.Printf("Recording (max %ds)... press Enter to stop.\n", a.cfg.Recording.MaxSeconds)

	// Stop on Enter or when the controller auto-stops at the limit,
	// whichever comes first.
	enter := make(chan struct{})
	go func() {
		bufio.NewReader(os.Stdin).ReadString('\n')
		close(enter)
	}()
	ticker := time.NewTicker(200 * time.Millisecond)
	defer ticker.Stop()
wait:
	for {
		select {
		case <-enter:
			break wait
		case <-ticker.C:
			if ctl.State() != recorder.StateRecording {
				break wait
			}
		}
	}
	ctl.StopRecording()
	fmt.Printf("Recorded %d seconds (%d bytes).\n", ctl.Elapsed(), len(ctl.Artifact()))

	if *out != "" {
		if err := ctl.SavePreview(*out); err != nil {
			log.Fatalf("Could not save recording: %v", err)
		}
		fmt.Printf("Saved recording to %s\n", *out)
	}

	if *doUpload {
		item, err := ctl.Upload(ctx)
		if err != nil {
			log.Fatalf("Upload failed: %v", err)
		}
		a.registry.RecordUpload(item)
		fmt.Printf("Uploaded. Item %s is %s.\n", item.ID, item.ProcessingStatus)
	}
}

func (a *clientApp) upload(ctx context.Context, args []string) {
	if len(args) != 1 {
		log.Fatal("Usage: speak2see upload <file.wav>")
	}
	a.requireAuth(ctx)

	audio, err := os.ReadFile(args[0])
	if err != nil {
		log.Fatalf("Could not read %s: %v", args[0], err)
	}
	item, err := a.backend.UploadAudio(ctx, audio)
	if err != nil {
		log.Fatalf("Upload failed: %v", err)
	}
	fmt.Printf("Uploaded. Item %s is %s.\n", item.ID, item.ProcessingStatus)
}

func (a *clientApp) items(ctx context.Context) {
	a.requireAuth(ctx)
	if err := a.registry.Reload(ctx); err != nil {
		log.Fatalf("Could not load items: %v", err)
	}

	items := a.registry.Items()
	// Presentation order is a view concern: newest first.
	sort.Slice(items, func(i, j int) bool {
		return items[i].CreatedAt > items[j].CreatedAt
	})

	if len(items) == 0 {
		fmt.Println("No items yet. Record something!")
		return
	}
	for _, item := range items {
		created := time.Unix(item.CreatedAt, 0).Format("2006-01-02 15:04:05")
		fmt.Printf("%-40s %s %s\n", item.ID, created, item.ProcessingStatus)
	}
}

func (a *clientApp) show(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("show", flag.ExitOnError)
	imageOut := fs.String("image-out", "", "write the generated image to this file")
	fs.Parse(args)
	if fs.NArg() != 1 {
		log.Fatal("Usage: speak2see show [-image-out file] <id>")
	}
	id := fs.Arg(0)

	a.requireAuth(ctx)
	if err := a.registry.Reload(ctx); err != nil {
		log.Fatalf("Could not load items: %v", err)
	}

	item, err := a.registry.SelectItem(ctx, id)
	if err != nil {
		log.Fatalf("Could not load item details: %v", err)
	}
	if item == nil {
		return
	}

	fmt.Printf("Item:   %s\n", item.ID)
	fmt.Printf("Status: %s\n", item.ProcessingStatus)
	fmt.Printf("Created: %s\n", time.Unix(item.CreatedAt, 0).Format(time.RFC1123))
	if item.Transcription != nil {
		fmt.Printf("Transcription: %s\n", *item.Transcription)
	}
	if item.Prompt != nil {
		fmt.Printf("Prompt: %s\n", *item.Prompt)
	}
	if item.Image != nil {
		fmt.Println("Image: available")
		if *imageOut != "" {
			if err := saveBase64(*imageOut, *item.Image); err != nil {
				log.Fatalf("Could not save image: %v", err)
			}
			fmt.Printf("Saved image to %s\n", *imageOut)
		}
	}
	if item.ProcessingStatus == models.StatusInProgress {
		fmt.Println("Processing in progress... re-run to refresh.")
	}
}

func saveBase64(path, data string) error {
	decoded, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return err
	}
	return os.WriteFile(path, decoded, 0644)
}

func (a *clientApp) watch(ctx context.Context) {
	a.requireAuth(ctx)

	url := fmt.Sprintf("ws://localhost:%d/ws/progress", a.cfg.Port)
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		log.Fatalf("Could not connect to %s: %v", url, err)
	}
	defer conn.Close()

	fmt.Println("Watching processing progress (Ctrl-C to stop)...")
	for {
		var update models.ProgressUpdate
		if err := conn.ReadJSON(&update); err != nil {
			log.Fatalf("Connection closed: %v", err)
		}
		fmt.Printf("%s  %-11s %s\n", update.ItemID, update.Status, update.Message)
	}
}
