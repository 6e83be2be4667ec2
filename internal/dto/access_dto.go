package dto

// AccessResult describes a student's access level for one course. It is
// the composed output of the access resolution algorithm: free courses
// grant access unconditionally, priced courses require a paid enrollment.
type AccessResult struct {
	IsEnrolled   bool    `json:"is_enrolled"`
	IsPaid       bool    `json:"is_paid"`
	HasAccess    bool    `json:"has_access"`
	IsFreeCourse bool    `json:"is_free_course"`
	CoursePrice  float64 `json:"course_price"`
}
