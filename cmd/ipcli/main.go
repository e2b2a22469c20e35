// ipcli prepares IP registrations from local files against a running
// transaction preparation service.
//
// Usage:
//
//	ipcli mint --server <url> --address <0x...> [--title T] [--description D] <file>
//	ipcli hash <file>
//	ipcli token --secret <secret> --subject <client-id> [--ttl 24h]
package main

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	cli "gopkg.in/urfave/cli.v1"

	"github.com/javajoker/story-txprep/internal/models"
	"github.com/javajoker/story-txprep/internal/utils"
)

// Exit codes let CI pipelines decide whether to retry.
const (
	exitTerminal  = 1
	exitRetryable = 2
)

var (
	app = cli.NewApp()

	serverFlag = cli.StringFlag{
		Name:   "server",
		Usage:  "Base URL of the preparation service",
		Value:  "http://localhost:8080",
		EnvVar: "TXPREP_SERVER",
	}
	addressFlag = cli.StringFlag{
		Name:   "address",
		Usage:  "Wallet address that will sign the transaction",
		EnvVar: "TXPREP_ADDRESS",
	}
	tokenFlag = cli.StringFlag{
		Name:   "token",
		Usage:  "Optional API bearer token",
		EnvVar: "TXPREP_TOKEN",
	}
	titleFlag = cli.StringFlag{
		Name:  "title",
		Usage: "Override the title derived from the filename",
	}
	descriptionFlag = cli.StringFlag{
		Name:  "description",
		Usage: "Override the derived description",
	}
	contentTypeFlag = cli.StringFlag{
		Name:  "content-type",
		Usage: "Declared MIME type (detected from content when empty)",
	}
	collectionFlag = cli.StringFlag{
		Name:  "collection",
		Usage: "SPG NFT collection address (network default when empty)",
	}
	timeoutFlag = cli.DurationFlag{
		Name:  "timeout",
		Usage: "Request timeout",
		Value: 2 * time.Minute,
	}
	secretFlag = cli.StringFlag{
		Name:   "secret",
		Usage:  "API_JWT_SECRET of the target service",
		EnvVar: "API_JWT_SECRET",
	}
	subjectFlag = cli.StringFlag{
		Name:  "subject",
		Usage: "Client id the token identifies for rate limiting",
	}
	ttlFlag = cli.DurationFlag{
		Name:  "ttl",
		Usage: "Token lifetime",
		Value: 24 * time.Hour,
	}
	verboseFlag = cli.BoolFlag{
		Name:  "verbose",
		Usage: "Log request details to stderr",
	}
)

func init() {
	app.Name = "ipcli"
	app.Usage = "Prepare Story IP registrations for local files"
	app.Version = "1.0.0"
	app.Flags = []cli.Flag{verboseFlag}
	app.Before = func(ctx *cli.Context) error {
		logrus.SetOutput(os.Stderr)
		if ctx.GlobalBool(verboseFlag.Name) {
			logrus.SetLevel(logrus.DebugLevel)
		}
		return nil
	}
	app.Commands = []cli.Command{
		{
			Name:      "mint",
			Usage:     "Upload a file and print the prepared transaction",
			ArgsUsage: "<file>",
			Flags: []cli.Flag{
				serverFlag,
				addressFlag,
				tokenFlag,
				titleFlag,
				descriptionFlag,
				contentTypeFlag,
				collectionFlag,
				timeoutFlag,
			},
			Action: mint,
		},
		{
			Name:      "hash",
			Usage:     "Print the SHA-256 content hash of a file",
			ArgsUsage: "<file>",
			Action:    hash,
		},
		{
			Name:   "token",
			Usage:  "Issue a client bearer token for local and CI use",
			Flags:  []cli.Flag{secretFlag, subjectFlag, ttlFlag},
			Action: issueToken,
		},
	}
}

func main() {
	if err := app.Run(os.Args); err != nil {
		code := exitTerminal
		if coder, ok := err.(cli.ExitCoder); ok {
			code = coder.ExitCode()
		}
		if msg := err.Error(); msg != "" {
			fmt.Fprintln(os.Stderr, msg)
		}
		os.Exit(code)
	}
}

func fileArg(ctx *cli.Context) (string, []byte, error) {
	if ctx.NArg() != 1 {
		return "", nil, cli.NewExitError("expected exactly one file argument", exitTerminal)
	}
	path := ctx.Args().First()
	data, err := os.ReadFile(path)
	if err != nil {
		return "", nil, cli.NewExitError(err.Error(), exitTerminal)
	}
	return path, data, nil
}

func hash(ctx *cli.Context) error {
	_, data, err := fileArg(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintln(ctx.App.Writer, "0x"+utils.HashContent(data))
	return nil
}

func issueToken(ctx *cli.Context) error {
	secret, subject := ctx.String(secretFlag.Name), ctx.String(subjectFlag.Name)
	if secret == "" || subject == "" {
		return cli.NewExitError("--secret and --subject are required", exitTerminal)
	}
	token, err := utils.GenerateClientToken(subject, secret, ctx.Duration(ttlFlag.Name))
	if err != nil {
		return cli.NewExitError(err.Error(), exitTerminal)
	}
	fmt.Fprintln(ctx.App.Writer, token)
	return nil
}

// detectContentType prefers the declared type, then magic bytes, then the
// extension.
func detectContentType(path string, data []byte, declared string) string {
	if declared != "" {
		return declared
	}
	if m := mimetype.Detect(data); !m.Is("application/octet-stream") {
		return m.String()
	}
	if byExt := mime.TypeByExtension(filepath.Ext(path)); byExt != "" {
		return byExt
	}
	return "application/octet-stream"
}

func mint(ctx *cli.Context) error {
	path, data, err := fileArg(ctx)
	if err != nil {
		return err
	}
	address := ctx.String(addressFlag.Name)
	if !utils.IsAddress(address) {
		return cli.NewExitError("--address must be a 0x-prefixed 40 hex character address", exitTerminal)
	}

	req := models.CLIMintRequest{
		UserAddress:    address,
		FilePath:       path,
		FileData:       base64.StdEncoding.EncodeToString(data),
		Filename:       filepath.Base(path),
		ContentType:    detectContentType(path, data, ctx.String(contentTypeFlag.Name)),
		Title:          ctx.String(titleFlag.Name),
		Description:    ctx.String(descriptionFlag.Name),
		SPGNFTContract: ctx.String(collectionFlag.Name),
	}

	body, status, err := post(ctx, "/api/v1/prepare/cli-mint", req)
	if err != nil {
		// transport failures are worth retrying
		return cli.NewExitError(err.Error(), exitRetryable)
	}
	fmt.Fprintln(ctx.App.Writer, string(body))

	if status == http.StatusOK {
		return nil
	}
	var envelope models.ErrorResponse
	if err := json.Unmarshal(body, &envelope); err != nil {
		return cli.NewExitError(fmt.Sprintf("unexpected response status %d", status), exitTerminal)
	}
	code := exitTerminal
	if envelope.Error.Retryable {
		code = exitRetryable
	}
	return cli.NewExitError(fmt.Sprintf("%s: %s", envelope.Error.Code, envelope.Error.Message), code)
}

func post(ctx *cli.Context, path string, payload any) ([]byte, int, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, 0, errors.Wrap(err, "encode request")
	}

	reqCtx, cancel := context.WithTimeout(context.Background(), ctx.Duration(timeoutFlag.Name))
	defer cancel()

	url := ctx.String(serverFlag.Name) + path
	httpReq, err := http.NewRequestWithContext(reqCtx, http.MethodPost, url, bytes.NewReader(raw))
	if err != nil {
		return nil, 0, errors.Wrap(err, "build request")
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if token := ctx.String(tokenFlag.Name); token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+token)
	}

	logrus.WithFields(logrus.Fields{"url": url, "bytes": len(raw)}).Debug("Posting request")
	resp, err := http.DefaultClient.Do(httpReq)
	if err != nil {
		return nil, 0, errors.Wrap(err, "request failed")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, errors.Wrap(err, "read response")
	}
	logrus.WithFields(logrus.Fields{
		"status":     resp.StatusCode,
		"request_id": resp.Header.Get("X-Request-ID"),
	}).Debug("Response received")
	return body, resp.StatusCode, nil
}
