package handler

import (
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/gorilla/feeds"
	"github.com/talentboard/job-portal/internal/job"
	"github.com/talentboard/job-portal/internal/server"
)

// siteURL is the public frontend, falling back to the host the request
// reached.
func siteURL(svr server.Server, r *http.Request) string {
	if site := svr.GetConfig().SiteURL; site != "" {
		return site
	}
	scheme := "http"
	if r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https" {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s", scheme, r.Host)
}

// ServeRSSFeed publishes the latest jobs as RSS.
func ServeRSSFeed(svr server.Server, d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		jobs, err := d.Jobs.LatestJobs(job.FeedJobsLimit)
		if err != nil {
			svr.Log(err, "unable to retrieve jobs for RSS Feed")
			svr.XML(w, http.StatusInternalServerError, []byte{})
			return
		}
		site := siteURL(svr, r)
		feed := &feeds.Feed{
			Title:       "Job Portal",
			Link:        &feeds.Link{Href: site},
			Description: "Latest jobs posted on Job Portal",
			Created:     time.Now(),
		}
		for _, j := range jobs {
			feed.Items = append(feed.Items, &feeds.Item{
				Id:          j.ID,
				Title:       fmt.Sprintf("%s with %s - %s", j.Title, j.Recruiter.Name, j.Location),
				Link:        &feeds.Link{Href: fmt.Sprintf("%s/job/%s", site, url.PathEscape(j.ID))},
				Description: fmt.Sprintf("%s\n\nCategory: %s\nSalary: %d", j.Description, j.Category, j.Salary),
				Author:      &feeds.Author{Name: j.Recruiter.Name},
				Created:     j.CreatedAt,
			})
		}
		rssFeed, err := feed.ToRss()
		if err != nil {
			svr.Log(err, "unable to convert rss feed to xml")
			svr.XML(w, http.StatusInternalServerError, []byte{})
			return
		}
		svr.XML(w, http.StatusOK, []byte(rssFeed))
	}
}

func HealthHandler(svr server.Server, d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if d.DB != nil {
			if err := d.DB.PingContext(r.Context()); err != nil {
				svr.Log(err, "database ping failed")
				svr.Message(w, http.StatusServiceUnavailable, "database unavailable")
				return
			}
		}
		svr.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
