package server

import (
	"context"
	"net"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	reflectionpb "google.golang.org/grpc/reflection/grpc_reflection_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/descriptorpb"

	"github.com/joseph-ayodele/legal-analyzer/constants"
	"github.com/joseph-ayodele/legal-analyzer/internal/async"
	"github.com/joseph-ayodele/legal-analyzer/internal/entity"
	"github.com/joseph-ayodele/legal-analyzer/internal/ingest"
	"github.com/joseph-ayodele/legal-analyzer/internal/repository"
)

type fakeQueue struct {
	mu       sync.Mutex
	jobs     []uuid.UUID
	canceled []uuid.UUID
	err      error
}

func (q *fakeQueue) Enqueue(_ context.Context, job async.Job) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.err != nil {
		return q.err
	}
	q.jobs = append(q.jobs, job.DocumentID)
	return nil
}

func (q *fakeQueue) reject(err error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.err = err
}

func (q *fakeQueue) Cancel(id uuid.UUID) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.canceled = append(q.canceled, id)
	return false
}

func (q *fakeQueue) enqueued() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.jobs)
}

type harness struct {
	conn   *grpc.ClientConn
	client *AnalysisClient
	health healthpb.HealthClient
	store  *repository.MemoryStore
	queue  *fakeQueue
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	store := repository.NewMemoryStore()
	q := &fakeQueue{}
	svc := NewAnalysisService(store, ingest.NewFSIngestor(store, q, nil), q, nil)
	srv, _ := NewGRPCServer(svc, nil)

	lis := bufconn.Listen(1 << 20)
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return &harness{conn: conn, client: NewAnalysisClient(conn), health: healthpb.NewHealthClient(conn), store: store, queue: q}
}

func wantCode(t *testing.T, err error, code codes.Code) {
	t.Helper()
	if got := status.Code(err); got != code {
		t.Fatalf("code = %v (%v), want %v", got, err, code)
	}
}

func TestHealth(t *testing.T) {
	h := newHarness(t)
	resp, err := h.health.Check(context.Background(), &healthpb.HealthCheckRequest{Service: ServiceName})
	if err != nil {
		t.Fatal(err)
	}
	if resp.GetStatus() != healthpb.HealthCheckResponse_SERVING {
		t.Fatalf("status = %v", resp.GetStatus())
	}
}

func TestReflectionDescribesService(t *testing.T) {
	h := newHarness(t)
	stream, err := reflectionpb.NewServerReflectionClient(h.conn).ServerReflectionInfo(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	defer stream.CloseSend()

	if err := stream.Send(&reflectionpb.ServerReflectionRequest{
		MessageRequest: &reflectionpb.ServerReflectionRequest_FileContainingSymbol{FileContainingSymbol: ServiceName},
	}); err != nil {
		t.Fatal(err)
	}
	resp, err := stream.Recv()
	if err != nil {
		t.Fatal(err)
	}
	if e := resp.GetErrorResponse(); e != nil {
		t.Fatalf("reflection error: %s", e.GetErrorMessage())
	}
	var file *descriptorpb.FileDescriptorProto
	for _, raw := range resp.GetFileDescriptorResponse().GetFileDescriptorProto() {
		fd := &descriptorpb.FileDescriptorProto{}
		if err := proto.Unmarshal(raw, fd); err != nil {
			t.Fatal(err)
		}
		if fd.GetName() == ProtoFile {
			file = fd
		}
	}
	if file == nil {
		t.Fatalf("no %s in reflection response", ProtoFile)
	}
	if file.GetPackage() != "legal.v1" || len(file.GetService()) != 1 {
		t.Fatalf("file = %v", file)
	}
	methods := file.GetService()[0].GetMethod()
	if len(methods) != len(AnalysisServiceDesc.Methods) {
		t.Fatalf("methods = %d, want %d", len(methods), len(AnalysisServiceDesc.Methods))
	}
	for k, m := range methods {
		if m.GetName() != AnalysisServiceDesc.Methods[k].MethodName ||
			m.GetInputType() != ".google.protobuf.StringValue" || m.GetOutputType() != ".google.protobuf.Struct" {
			t.Errorf("method %d = %v", k, m)
		}
	}
	if RegisterDescriptor() != nil {
		t.Error("second registration should be a no-op")
	}
}

func TestDocumentLifecycle(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)

	path := filepath.Join(t.TempDir(), "nda.txt")
	if err := os.WriteFile(path, []byte("The Recipient shall keep all information confidential."), 0o644); err != nil {
		t.Fatal(err)
	}
	ingested, err := h.client.IngestPath(ctx, path)
	if err != nil {
		t.Fatalf("IngestPath: %v", err)
	}
	id := ingested.GetFields()["document_id"].GetStringValue()
	if _, err := uuid.Parse(id); err != nil {
		t.Fatalf("document_id %q: %v", id, err)
	}
	if h.queue.enqueued() != 1 {
		t.Fatalf("enqueued = %d", h.queue.enqueued())
	}

	st, err := h.client.GetStatus(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if got := st.GetFields()["status"].GetStringValue(); got != "pending" {
		t.Fatalf("status = %q", got)
	}

	_, err = h.client.GetAnalysis(ctx, id)
	wantCode(t, err, codes.FailedPrecondition)
	_, err = h.client.Reanalyze(ctx, id)
	wantCode(t, err, codes.FailedPrecondition)

	a := entity.NewAnalysis()
	a.Summary = "The Recipient shall keep all information confidential."
	a.OverallRiskScore = 0.2
	if err := h.store.SaveAnalysis(ctx, uuid.MustParse(id), a); err != nil {
		t.Fatal(err)
	}
	got, err := h.client.GetAnalysis(ctx, id)
	if err != nil {
		t.Fatalf("GetAnalysis: %v", err)
	}
	f := got.GetFields()
	if f["summary"].GetStringValue() != a.Summary || f["document_id"].GetStringValue() != id {
		t.Fatalf("analysis = %v", got)
	}
	if f["overall_risk_score"].GetNumberValue() != 0.2 {
		t.Errorf("risk score = %v", f["overall_risk_score"])
	}

	re, err := h.client.Reanalyze(ctx, id)
	if err != nil {
		t.Fatalf("Reanalyze: %v", err)
	}
	if !re.GetFields()["queued"].GetBoolValue() || re.GetFields()["status"].GetStringValue() != "completed" {
		t.Fatalf("after reanalyze = %v", re)
	}
	if h.queue.enqueued() != 2 {
		t.Fatalf("enqueued = %d, want 2", h.queue.enqueued())
	}
	if _, err := h.store.GetAnalysis(ctx, uuid.MustParse(id)); err != nil {
		t.Fatalf("analysis should survive until the worker runs: %v", err)
	}

	del, err := h.client.DeleteDocument(ctx, id)
	if err != nil {
		t.Fatalf("DeleteDocument: %v", err)
	}
	if !del.GetFields()["deleted"].GetBoolValue() {
		t.Fatalf("delete = %v", del)
	}
	_, err = h.client.GetStatus(ctx, id)
	wantCode(t, err, codes.NotFound)
	_, err = h.client.DeleteDocument(ctx, id)
	wantCode(t, err, codes.NotFound)
}

func TestReanalyzeRejectedKeepsState(t *testing.T) {
	tests := []struct {
		name   string
		status constants.DocumentStatus
		err    error
		code   codes.Code
	}{
		{"completed queue closed", constants.StatusCompleted, async.ErrQueueClosed, codes.Unavailable},
		{"completed still running", constants.StatusCompleted, async.ErrAlreadyQueued, codes.FailedPrecondition},
		{"failed queue closed", constants.StatusFailed, async.ErrQueueClosed, codes.Unavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			h := newHarness(t)
			doc, err := h.store.Create(ctx, entity.NewDocument{Title: "lease.txt", FileType: "txt", Data: []byte("The Lessee shall pay rent.")})
			if err != nil {
				t.Fatal(err)
			}
			if tt.status == constants.StatusCompleted {
				a := entity.NewAnalysis()
				a.Summary = "The Lessee shall pay rent."
				if err := h.store.SaveAnalysis(ctx, doc.ID, a); err != nil {
					t.Fatal(err)
				}
			} else if err := h.store.SetStatus(ctx, doc.ID, tt.status, "extraction failed"); err != nil {
				t.Fatal(err)
			}
			h.queue.reject(tt.err)

			_, err = h.client.Reanalyze(ctx, doc.ID.String())
			wantCode(t, err, tt.code)

			got, err := h.store.Get(ctx, doc.ID)
			if err != nil {
				t.Fatal(err)
			}
			if got.Status != tt.status {
				t.Fatalf("status = %q, want %q", got.Status, tt.status)
			}
			_, err = h.store.GetAnalysis(ctx, doc.ID)
			if hasAnalysis := err == nil; hasAnalysis != (tt.status == constants.StatusCompleted) {
				t.Fatalf("GetAnalysis err = %v", err)
			}
		})
	}
}

func TestInvalidArguments(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	bad := filepath.Join(t.TempDir(), "tool.exe")
	if err := os.WriteFile(bad, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		call func() error
	}{
		{"empty path", func() error { _, err := h.client.IngestPath(ctx, " "); return err }},
		{"unsupported extension", func() error { _, err := h.client.IngestPath(ctx, bad); return err }},
		{"status bad id", func() error { _, err := h.client.GetStatus(ctx, "nope"); return err }},
		{"analysis empty id", func() error { _, err := h.client.GetAnalysis(ctx, ""); return err }},
		{"reanalyze bad id", func() error { _, err := h.client.Reanalyze(ctx, "123"); return err }},
		{"delete bad id", func() error { _, err := h.client.DeleteDocument(ctx, "x"); return err }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wantCode(t, tt.call(), codes.InvalidArgument)
		})
	}
}
