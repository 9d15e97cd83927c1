package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/onsi/gomega/ghttp"

	"github.com/hyperifyio/telebirr-verify/internal/extract"
	"github.com/hyperifyio/telebirr-verify/internal/failure"
	"github.com/hyperifyio/telebirr-verify/internal/receipt"
)

type fakeVerifier struct {
	byTx  map[string]error
	urls  []string
	panic bool
}

func sampleReceipt(tx string) receipt.Receipt {
	return receipt.Receipt{
		InvoiceNo:              tx,
		SettledAmount:          "1,234.50",
		CreditedPartyAccountNo: "2519****5678",
		PayerName:              "Abebe Kebede Tesfaye",
		PayerNameParts:         receipt.ParseEthiopianName("Abebe Kebede Tesfaye"),
		RawData:                extract.NewPairs("የከፋይ ስም/Payer Name", "Abebe Kebede Tesfaye"),
		SourceURL:              "https://transactioninfo.ethiotelecom.et/receipt/" + tx,
	}
}

func (f *fakeVerifier) ReceiptByTx(ctx context.Context, tx string) (receipt.Receipt, error) {
	if f.panic {
		panic("boom")
	}
	if err, ok := f.byTx[tx]; ok {
		return receipt.Receipt{}, err
	}
	return sampleReceipt(tx), nil
}

func (f *fakeVerifier) ReceiptByURL(ctx context.Context, raw string) (receipt.Receipt, error) {
	f.urls = append(f.urls, raw)
	if strings.Contains(raw, "evil") {
		return receipt.Receipt{}, failure.New(failure.HostNotAllowed)
	}
	return sampleReceipt("CFB0L2AXYZ"), nil
}

func decode(resp *http.Response) map[string]any {
	defer resp.Body.Close()
	var body map[string]any
	Expect(json.NewDecoder(resp.Body).Decode(&body)).To(Succeed())
	return body
}

var _ = Describe("Server", func() {
	var (
		verifier    *fakeVerifier
		server      *Server
		ghttpServer *ghttp.Server
	)

	BeforeEach(func() {
		verifier = &fakeVerifier{byTx: map[string]error{
			"NOTFOUND00": failure.New(failure.TxNotFound),
			"PARTIAL000": failure.New(failure.ParseFail).WithDetails(receipt.Presence{HasInvoiceNo: true, HasSettledAmount: true}),
			"SLOW000000": failure.New(failure.PageTimeout),
			"bad":        failure.New(failure.TxFormat),
			"OOPS000000": errors.New("disk on fire"),
		}}
		server = NewServer(verifier, Options{
			Version: "1.2.3",
			Now:     func() time.Time { return time.Date(2024, 5, 15, 0, 0, 0, 0, time.UTC) },
		})
		ghttpServer = ghttp.NewServer()
		ghttpServer.AppendHandlers(server.ServeHTTP)
	})

	AfterEach(func() {
		ghttpServer.Close()
	})

	Describe("GET /health", func() {
		It("reports ok with the build version", func() {
			resp, err := http.Get(ghttpServer.URL() + "/health")
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			Expect(decode(resp)).To(HaveKeyWithValue("version", "1.2.3"))
		})
	})

	Describe("GET /api/receipts/{tx}", func() {
		When("the receipt verifies", func() {
			It("returns the canonical receipt with a check id", func() {
				resp, err := http.Get(ghttpServer.URL() + "/api/receipts/CFB0L2AXYZ")
				Expect(err).NotTo(HaveOccurred())
				Expect(resp.StatusCode).To(Equal(http.StatusOK))
				Expect(resp.Header.Get("Content-Type")).To(Equal("application/json"))
				body := decode(resp)
				Expect(body).To(HaveKeyWithValue("invoiceNo", "CFB0L2AXYZ"))
				Expect(body).To(HaveKeyWithValue("settledAmount", "1,234.50"))
				Expect(body).To(HaveKey("payerNameParts"))
				Expect(body).NotTo(HaveKey("paymentDate"))
				Expect(body["checkId"]).To(MatchRegexp(`^[0-9a-f-]{36}$`))
			})
		})

		DescribeTable("failure codes map to HTTP statuses",
			func(tx string, status int, code string) {
				resp, err := http.Get(ghttpServer.URL() + "/api/receipts/" + tx)
				Expect(err).NotTo(HaveOccurred())
				Expect(resp.StatusCode).To(Equal(status))
				body := decode(resp)
				Expect(body).To(HaveKey("checkId"))
				Expect(body["error"]).To(HaveKeyWithValue("code", code))
			},
			Entry("bad format", "bad", http.StatusBadRequest, "TX_FORMAT"),
			Entry("not found", "NOTFOUND00", http.StatusNotFound, "TX_NOT_FOUND"),
			Entry("missing fields", "PARTIAL000", http.StatusUnprocessableEntity, "PARSE_FAIL"),
			Entry("timeout", "SLOW000000", http.StatusGatewayTimeout, "PAGE_TIMEOUT"),
			Entry("unclassified", "OOPS000000", http.StatusInternalServerError, "UNKNOWN_ERROR"),
		)

		It("reports which required fields were present on PARSE_FAIL", func() {
			resp, err := http.Get(ghttpServer.URL() + "/api/receipts/PARTIAL000")
			Expect(err).NotTo(HaveOccurred())
			details := decode(resp)["error"].(map[string]any)["details"]
			Expect(details).To(HaveKeyWithValue("hasCreditedPartyAccountNo", false))
			Expect(details).To(HaveKeyWithValue("hasInvoiceNo", true))
		})

		It("does not leak the cause of unclassified errors", func() {
			resp, err := http.Get(ghttpServer.URL() + "/api/receipts/OOPS000000")
			Expect(err).NotTo(HaveOccurred())
			b, _ := io.ReadAll(resp.Body)
			resp.Body.Close()
			Expect(string(b)).NotTo(ContainSubstring("disk on fire"))
		})
	})

	Describe("GET /api/receipts/{tx}/slip.pdf", func() {
		It("renders a PDF", func() {
			resp, err := http.Get(ghttpServer.URL() + "/api/receipts/CFB0L2AXYZ/slip.pdf")
			Expect(err).NotTo(HaveOccurred())
			defer resp.Body.Close()
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			Expect(resp.Header.Get("Content-Type")).To(Equal("application/pdf"))
			b, _ := io.ReadAll(resp.Body)
			Expect(string(b)).To(HavePrefix("%PDF-"))
		})

		It("returns the JSON error body when verification fails", func() {
			resp, err := http.Get(ghttpServer.URL() + "/api/receipts/NOTFOUND00/slip.pdf")
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusNotFound))
			Expect(decode(resp)["error"]).To(HaveKeyWithValue("code", "TX_NOT_FOUND"))
		})
	})

	Describe("/api/receipts/by-url", func() {
		When("posting a JSON body", func() {
			It("verifies the link", func() {
				body := bytes.NewBufferString(`{"url":"https://transactioninfo.ethiotelecom.et/receipt/CFB0L2AXYZ"}`)
				resp, err := http.Post(ghttpServer.URL()+"/api/receipts/by-url", "application/json", body)
				Expect(err).NotTo(HaveOccurred())
				Expect(resp.StatusCode).To(Equal(http.StatusOK))
				Expect(decode(resp)).To(HaveKeyWithValue("invoiceNo", "CFB0L2AXYZ"))
				Expect(verifier.urls).To(ConsistOf("https://transactioninfo.ethiotelecom.et/receipt/CFB0L2AXYZ"))
			})

			It("rejects a missing url before verifying", func() {
				resp, err := http.Post(ghttpServer.URL()+"/api/receipts/by-url", "application/json", bytes.NewBufferString(`{}`))
				Expect(err).NotTo(HaveOccurred())
				Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
				Expect(decode(resp)["error"]).To(HaveKeyWithValue("code", "INVALID_URL"))
				Expect(verifier.urls).To(BeEmpty())
			})

			It("rejects malformed JSON", func() {
				resp, err := http.Post(ghttpServer.URL()+"/api/receipts/by-url", "application/json", bytes.NewBufferString(`{"url":`))
				Expect(err).NotTo(HaveOccurred())
				Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
				resp.Body.Close()
			})
		})

		When("using the query form", func() {
			It("maps a disallowed host to 403", func() {
				resp, err := http.Get(ghttpServer.URL() + "/api/receipts/by-url?url=https%3A%2F%2Fevil.example%2Freceipt%2FCFB0L2AXYZ")
				Expect(err).NotTo(HaveOccurred())
				Expect(resp.StatusCode).To(Equal(http.StatusForbidden))
				Expect(decode(resp)["error"]).To(HaveKeyWithValue("code", "HOST_NOT_ALLOWED"))
			})
		})
	})

	Describe("GET /", func() {
		It("serves the verification page", func() {
			resp, err := http.Get(ghttpServer.URL() + "/")
			Expect(err).NotTo(HaveOccurred())
			defer resp.Body.Close()
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			b, _ := io.ReadAll(resp.Body)
			Expect(string(b)).To(ContainSubstring("telebirr receipt verification"))
		})
	})

	Describe("CORS", func() {
		It("answers preflight requests", func() {
			req, _ := http.NewRequest(http.MethodOptions, ghttpServer.URL()+"/api/receipts/by-url", nil)
			req.Header.Set("Origin", "https://shop.example")
			req.Header.Set("Access-Control-Request-Method", http.MethodPost)
			resp, err := http.DefaultClient.Do(req)
			Expect(err).NotTo(HaveOccurred())
			resp.Body.Close()
			Expect(resp.Header.Get("Access-Control-Allow-Origin")).To(Equal("*"))
		})
	})

	Describe("panics", func() {
		It("are recovered as 500", func() {
			verifier.panic = true
			resp, err := http.Get(ghttpServer.URL() + "/api/receipts/CFB0L2AXYZ")
			Expect(err).NotTo(HaveOccurred())
			resp.Body.Close()
			Expect(resp.StatusCode).To(Equal(http.StatusInternalServerError))
		})
	})
})

var _ = Describe("StatusFor", func() {
	It("covers every failure code", func() {
		for _, c := range failure.Codes() {
			Expect(statusByCode).To(HaveKey(c), string(c))
		}
		Expect(StatusFor(failure.Code("SOMETHING_NEW"))).To(Equal(http.StatusInternalServerError))
	})
})
